package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type StudiedRepo struct {
	pool *pgxpool.Pool
}

func NewStudiedRepo(pool *pgxpool.Pool) *StudiedRepo {
	return &StudiedRepo{pool: pool}
}

// TrackView records one view, creating the row on the first one.
func (r *StudiedRepo) TrackView(ctx context.Context, userID uuid.UUID, documentID int64) (int, error) {
	query := `INSERT INTO studied_documents (user_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, document_id)
		DO UPDATE SET view_count = studied_documents.view_count + 1, last_accessed = NOW()
		RETURNING view_count`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, documentID).Scan(&count)
	return count, err
}

// ListByUser returns the user's studied documents, most recently accessed first.
func (r *StudiedRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudiedDocument, error) {
	query := `SELECT s.document_id, d.title, d.category, s.view_count, s.last_accessed
		FROM studied_documents s
		JOIN documents d ON d.id = s.document_id
		WHERE s.user_id = $1
		ORDER BY s.last_accessed DESC, s.id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.StudiedDocument
	for rows.Next() {
		var d models.StudiedDocument
		if err := rows.Scan(&d.DocumentID, &d.Title, &d.Category, &d.ViewCount, &d.LastAccessedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
