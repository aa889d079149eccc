package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"assessment-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEncode is returned when a value cannot be serialized for storage.
var ErrEncode = errors.New("encode failed")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx groups the writes that must commit together.
type Tx interface {
	ReplaceQuestions(ctx context.Context, documentID int64, questions []models.Question) ([]models.Question, error)
	CreateProgress(ctx context.Context, p *models.ProgressRecord) error
	CreateQuizHistory(ctx context.Context, h *models.QuizHistoryRecord) error
	CreateCompletedQuiz(ctx context.Context, c *models.CompletedQuiz) error
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside a transaction. Any error from fn rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	db DBTX
}

func (t *pgTx) ReplaceQuestions(ctx context.Context, documentID int64, questions []models.Question) ([]models.Question, error) {
	return replaceQuestions(ctx, t.db, documentID, questions)
}

func (t *pgTx) CreateProgress(ctx context.Context, p *models.ProgressRecord) error {
	return createProgress(ctx, t.db, p)
}

func (t *pgTx) CreateQuizHistory(ctx context.Context, h *models.QuizHistoryRecord) error {
	return createQuizHistory(ctx, t.db, h)
}

func (t *pgTx) CreateCompletedQuiz(ctx context.Context, c *models.CompletedQuiz) error {
	return createCompletedQuiz(ctx, t.db, c)
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
