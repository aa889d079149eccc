package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// ListByUser returns all progress records for a user, newest first.
// Records whose recommendation payload is unreadable come back with
// RecommendationsCorrupt set instead of failing the whole listing.
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	query := `SELECT id, user_id, document_id, score, recommendations, completed_at
		FROM user_progress WHERE user_id = $1 ORDER BY completed_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var p models.ProgressRecord
		var raw string
		if err := rows.Scan(&p.ID, &p.UserID, &p.DocumentID, &p.Score, &raw, &p.CompletedAt); err != nil {
			return nil, err
		}
		recs, err := decodeRecommendations(raw)
		if err != nil {
			p.RecommendationsCorrupt = true
		} else {
			p.Recommendations = recs
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func createProgress(ctx context.Context, db DBTX, p *models.ProgressRecord) error {
	raw, err := encodeRecommendations(p.Recommendations)
	if err != nil {
		return err
	}

	query := `INSERT INTO user_progress (user_id, document_id, score, recommendations)
		VALUES ($1, $2, $3, $4) RETURNING id, completed_at`

	return db.QueryRow(ctx, query, p.UserID, p.DocumentID, p.Score, raw).Scan(&p.ID, &p.CompletedAt)
}

func encodeRecommendations(recs []models.Recommendation) (string, error) {
	if recs == nil {
		recs = []models.Recommendation{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("%w: recommendations: %v", ErrEncode, err)
	}
	return string(b), nil
}

func decodeRecommendations(raw string) ([]models.Recommendation, error) {
	if raw == "" {
		return []models.Recommendation{}, nil
	}
	var recs []models.Recommendation
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs, nil
}
