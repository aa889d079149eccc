package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT id, title, category, source_url, created_at FROM documents WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Title, &d.Category, &d.SourceURL, &d.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return d, nil
}

const listByCategoryQuery = `SELECT id, title, category, source_url, created_at FROM documents
	WHERE category = $1 AND id <> $2 ORDER BY id LIMIT $3`

// ListByCategory returns the first limit documents in category by id, excluding excludeID.
func (r *DocumentRepo) ListByCategory(ctx context.Context, category string, excludeID int64, limit int) ([]models.Document, error) {
	rows, err := r.pool.Query(ctx, listByCategoryQuery, category, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Category, &d.SourceURL, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
