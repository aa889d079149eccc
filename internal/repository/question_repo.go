package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

const questionColumns = `id, document_id, question_text, options, correct_option, explanation, difficulty, created_at`

func (r *QuestionRepo) ListByDocument(ctx context.Context, documentID int64) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE document_id = $1 ORDER BY position, id`
	return queryQuestions(ctx, r.pool, query, documentID)
}

// GetByIDs returns the questions that exist among ids, in id order.
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []int64) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1) ORDER BY id`
	return queryQuestions(ctx, r.pool, query, ids)
}

func queryQuestions(ctx context.Context, db DBTX, query string, args ...any) ([]models.Question, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var options []byte
		var correct int16
		if err := rows.Scan(&q.ID, &q.DocumentID, &q.Text, &options, &correct, &q.Explanation, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %d: %w", q.ID, err)
		}
		q.CorrectOption = int(correct)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// replaceQuestions deletes the document's current set and inserts the new one in order.
// The document row is locked first so concurrent replacements for one document
// run one after the other and the later DELETE sees the earlier INSERTs.
func replaceQuestions(ctx context.Context, db DBTX, documentID int64, questions []models.Question) ([]models.Question, error) {
	var locked int64
	if err := db.QueryRow(ctx, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, documentID).Scan(&locked); err != nil {
		return nil, fmt.Errorf("lock document %d: %w", documentID, mapNotFound(err))
	}

	if _, err := db.Exec(ctx, `DELETE FROM questions WHERE document_id = $1`, documentID); err != nil {
		return nil, fmt.Errorf("delete question set: %w", err)
	}

	query := `INSERT INTO questions (document_id, position, question_text, options, correct_option, explanation, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`

	saved := make([]models.Question, len(questions))
	for i, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: question options: %v", ErrEncode, err)
		}
		q.DocumentID = documentID
		if err := db.QueryRow(ctx, query,
			documentID, i, q.Text, options, q.CorrectOption, q.Explanation, q.Difficulty,
		).Scan(&q.ID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert question %d: %w", i, err)
		}
		saved[i] = q
	}
	return saved, nil
}
