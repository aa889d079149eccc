package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

const historyColumns = `id, user_id, document_id, document_title, score, total_questions, difficulty,
	time_taken_seconds, correct_answers, completed_at`

func (r *HistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM quiz_history WHERE user_id = $1 ORDER BY completed_at DESC, id DESC`
	return r.queryHistory(ctx, query, userID)
}

func (r *HistoryRepo) ListByUserAndDocument(ctx context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM quiz_history
		WHERE user_id = $1 AND document_id = $2 ORDER BY completed_at DESC, id DESC`
	return r.queryHistory(ctx, query, userID, documentID)
}

func (r *HistoryRepo) GetByID(ctx context.Context, id int64) (*models.QuizHistoryRecord, error) {
	h := &models.QuizHistoryRecord{}
	query := `SELECT ` + historyColumns + ` FROM quiz_history WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.UserID, &h.DocumentID, &h.DocumentTitle, &h.Score, &h.TotalQuestions, &h.Difficulty,
		&h.TimeTakenSeconds, &h.CorrectAnswers, &h.CompletedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return h, nil
}

func (r *HistoryRepo) GetCompletedQuiz(ctx context.Context, historyID int64) (*models.CompletedQuiz, error) {
	c := &models.CompletedQuiz{}
	var data []byte
	query := `SELECT id, quiz_history_id, question_data, created_at FROM completed_quizzes WHERE quiz_history_id = $1`
	if err := r.pool.QueryRow(ctx, query, historyID).Scan(&c.ID, &c.QuizHistoryID, &data, &c.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	if err := json.Unmarshal(data, &c.Questions); err != nil {
		return nil, fmt.Errorf("decode completed quiz %d: %w", c.ID, err)
	}
	return c, nil
}

func (r *HistoryRepo) queryHistory(ctx context.Context, query string, args ...any) ([]models.QuizHistoryRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.QuizHistoryRecord
	for rows.Next() {
		var h models.QuizHistoryRecord
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.DocumentID, &h.DocumentTitle, &h.Score, &h.TotalQuestions, &h.Difficulty,
			&h.TimeTakenSeconds, &h.CorrectAnswers, &h.CompletedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

func createQuizHistory(ctx context.Context, db DBTX, h *models.QuizHistoryRecord) error {
	query := `INSERT INTO quiz_history (user_id, document_id, document_title, score, total_questions, difficulty,
		time_taken_seconds, correct_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, completed_at`

	return db.QueryRow(ctx, query,
		h.UserID, h.DocumentID, h.DocumentTitle, h.Score, h.TotalQuestions, h.Difficulty,
		h.TimeTakenSeconds, h.CorrectAnswers,
	).Scan(&h.ID, &h.CompletedAt)
}

func createCompletedQuiz(ctx context.Context, db DBTX, c *models.CompletedQuiz) error {
	data, err := json.Marshal(c.Questions)
	if err != nil {
		return fmt.Errorf("%w: completed quiz questions: %v", ErrEncode, err)
	}

	query := `INSERT INTO completed_quizzes (quiz_history_id, question_data) VALUES ($1, $2) RETURNING id, created_at`
	return db.QueryRow(ctx, query, c.QuizHistoryID, data).Scan(&c.ID, &c.CreatedAt)
}
