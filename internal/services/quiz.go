package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/metrics"
	"assessment-backend/internal/models"
	"assessment-backend/internal/repository"
)

type documentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	ListByCategory(ctx context.Context, category string, excludeID int64, limit int) ([]models.Document, error)
}

type questionStore interface {
	ListByDocument(ctx context.Context, documentID int64) ([]models.Question, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Question, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(repository.Tx) error) error
}

// ContentSource returns the extracted text of a document.
type ContentSource interface {
	GetContent(ctx context.Context, documentID int64) (string, error)
}

type QuizService struct {
	documents documentStore
	questions questionStore
	store     transactor
	content   ContentSource
	generator TextGenerator
	locker    DocumentLocker
	notifier  Notifier
	log       *logger.Logger
}

func NewQuizService(
	documents documentStore,
	questions questionStore,
	store transactor,
	content ContentSource,
	generator TextGenerator,
	locker DocumentLocker,
	notifier Notifier,
	log *logger.Logger,
) *QuizService {
	return &QuizService{
		documents: documents,
		questions: questions,
		store:     store,
		content:   content,
		generator: generator,
		locker:    locker,
		notifier:  notifier,
		log:       log.With("service", "quiz"),
	}
}

// Generate replaces the document's question set with count freshly generated
// questions. On any failure the previous set stays in place.
func (s *QuizService) Generate(ctx context.Context, userID uuid.UUID, documentID int64, count int, difficulty string) (*models.QuestionSet, error) {
	start := time.Now()
	set, err := s.generate(ctx, documentID, count, difficulty)
	metrics.QuizGenerations.WithLabelValues(errorClass(err)).Inc()

	if err != nil {
		s.log.Warn("question generation failed",
			"document_id", documentID, "user_id", userID, "class", errorClass(err), "error", err)
		return nil, err
	}

	s.log.Info("question set generated",
		"document_id", documentID, "user_id", userID, "count", len(set.Questions), "duration", time.Since(start))

	s.notifier.Notify(ctx, userID, models.WSMessage{
		Type: models.EventQuizGenerated,
		Payload: models.QuizGeneratedEvent{
			DocumentID:    documentID,
			QuestionCount: len(set.Questions),
			Difficulty:    set.Questions[0].Difficulty,
		},
	})
	return set, nil
}

func (s *QuizService) generate(ctx context.Context, documentID int64, count int, difficulty string) (*models.QuestionSet, error) {
	level, err := validateGenerationParams(count, difficulty)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, documentID)
	if err != nil {
		return nil, err
	}
	defer release()

	content, err := s.content.GetContent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	prompt, err := buildGenerationPrompt(content, count, level)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	questions, err := extractQuestions(raw, count, level)
	if err != nil {
		return nil, err
	}

	var saved []models.Question
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		saved, err = tx.ReplaceQuestions(ctx, documentID, questions)
		return err
	})
	if err != nil {
		return nil, storageError("replace question set", err)
	}

	return &models.QuestionSet{DocumentID: documentID, Questions: saved}, nil
}

// CurrentSet returns the live question set for a document.
func (s *QuizService) CurrentSet(ctx context.Context, documentID int64) (*models.QuestionSet, error) {
	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, documentLookupError(documentID, err)
	}

	questions, err := s.questions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return &models.QuestionSet{DocumentID: documentID, Questions: questions}, nil
}

func documentLookupError(documentID int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: fmt.Sprintf("Document %d not found", documentID)}
	}
	return fmt.Errorf("load document %d: %w", documentID, err)
}

// storageError maps encode failures to SerializationError and wraps the rest.
func storageError(op string, err error) error {
	if errors.Is(err, repository.ErrEncode) {
		return &SerializationError{Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
