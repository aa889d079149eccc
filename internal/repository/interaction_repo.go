package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

func (r *InteractionRepo) Create(ctx context.Context, i *models.ChatInteraction) error {
	query := `INSERT INTO chat_interactions (user_id, document_id, question, answer)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, i.UserID, i.DocumentID, i.Question, i.Answer).Scan(&i.ID, &i.CreatedAt)
}
