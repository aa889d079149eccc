package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/metrics"
	"assessment-backend/internal/models"
	"assessment-backend/internal/repository"
)

type SubmissionService struct {
	documents documentStore
	questions questionStore
	store     transactor
	content   ContentSource
	generator TextGenerator
	notifier  Notifier
	log       *logger.Logger
}

func NewSubmissionService(
	documents documentStore,
	questions questionStore,
	store transactor,
	content ContentSource,
	generator TextGenerator,
	notifier Notifier,
	log *logger.Logger,
) *SubmissionService {
	return &SubmissionService{
		documents: documents,
		questions: questions,
		store:     store,
		content:   content,
		generator: generator,
		notifier:  notifier,
		log:       log.With("service", "submission"),
	}
}

// correctAnswerCount derives the number of correct answers from a percentage score.
func correctAnswerCount(score float64, questionCount int) int {
	return int(math.Floor(score/100*float64(questionCount) + 0.5))
}

func roundScore(score float64) int {
	return int(math.Floor(score + 0.5))
}

// Submit grades answers for a document and records progress, history and the
// exact questions graded, all in one transaction.
func (s *SubmissionService) Submit(ctx context.Context, userID uuid.UUID, documentID int64, answers []models.Answer, timeTakenSeconds *int) (*models.EvaluationResult, error) {
	result, historyID, err := s.submit(ctx, userID, documentID, answers, timeTakenSeconds)
	metrics.Submissions.WithLabelValues(errorClass(err)).Inc()

	if err != nil {
		s.log.Warn("submission failed",
			"document_id", documentID, "user_id", userID, "class", errorClass(err), "error", err)
		return nil, err
	}

	s.log.Info("submission graded",
		"document_id", documentID, "user_id", userID, "score", result.Score, "quiz_history_id", historyID)

	s.notifier.Notify(ctx, userID, models.WSMessage{
		Type: models.EventSubmissionGraded,
		Payload: models.SubmissionGradedEvent{
			DocumentID:    documentID,
			QuizHistoryID: historyID,
			Score:         result.Score,
		},
	})
	return result, nil
}

func (s *SubmissionService) submit(ctx context.Context, userID uuid.UUID, documentID int64, answers []models.Answer, timeTakenSeconds *int) (*models.EvaluationResult, int64, error) {
	if err := validateAnswers(answers, timeTakenSeconds); err != nil {
		return nil, 0, err
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, 0, documentLookupError(documentID, err)
	}

	content, err := s.content.GetContent(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}

	graded, err := s.resolveAnswers(ctx, documentID, answers)
	if err != nil {
		return nil, 0, err
	}

	candidates, err := s.documents.ListByCategory(ctx, doc.Category, doc.ID, maxCandidateDocuments)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidate documents: %w", err)
	}

	raw, err := s.generator.Generate(ctx, buildGradingPrompt(doc.Title, content, graded, candidates))
	if err != nil {
		return nil, 0, err
	}

	result, err := extractEvaluation(raw, graded, candidates)
	if err != nil {
		return nil, 0, err
	}

	snapshot := make([]models.CompletedQuestion, len(graded))
	for i, a := range graded {
		snapshot[i] = models.CompletedQuestion{
			QuestionID:     a.Question.ID,
			Text:           a.Question.Text,
			Options:        a.Question.Options,
			CorrectOption:  a.Question.CorrectOption,
			SelectedOption: a.SelectedOption,
			Difficulty:     a.Question.Difficulty,
		}
	}

	history := &models.QuizHistoryRecord{
		UserID:           userID,
		DocumentID:       doc.ID,
		DocumentTitle:    doc.Title,
		Score:            result.Score,
		TotalQuestions:   len(graded),
		Difficulty:       graded[0].Question.Difficulty,
		TimeTakenSeconds: timeTakenSeconds,
		CorrectAnswers:   correctAnswerCount(result.Score, len(graded)),
	}

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateProgress(ctx, &models.ProgressRecord{
			UserID:          userID,
			DocumentID:      doc.ID,
			Score:           roundScore(result.Score),
			Recommendations: result.Recommendations,
		}); err != nil {
			return err
		}
		if err := tx.CreateQuizHistory(ctx, history); err != nil {
			return err
		}
		return tx.CreateCompletedQuiz(ctx, &models.CompletedQuiz{
			QuizHistoryID: history.ID,
			Questions:     snapshot,
		})
	})
	if err != nil {
		return nil, 0, storageError("record submission", err)
	}

	return result, history.ID, nil
}

func validateAnswers(answers []models.Answer, timeTakenSeconds *int) error {
	fields := map[string]string{}
	if len(answers) == 0 {
		fields["answers"] = "At least one answer is required"
	}

	seen := make(map[int64]bool, len(answers))
	for i, a := range answers {
		if a.SelectedOption < 0 || a.SelectedOption >= models.OptionCount {
			fields[fmt.Sprintf("answers[%d].selected_option", i)] = "Must be between 0 and 3"
		}
		if seen[a.QuestionID] {
			fields[fmt.Sprintf("answers[%d].question_id", i)] = "Duplicate question"
		}
		seen[a.QuestionID] = true
	}

	if timeTakenSeconds != nil && *timeTakenSeconds < 0 {
		fields["time_taken_seconds"] = "Must not be negative"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// resolveAnswers loads every referenced question. Unknown ids are NotFound;
// ids from another document's set are rejected.
func (s *SubmissionService) resolveAnswers(ctx context.Context, documentID int64, answers []models.Answer) ([]GradedAnswer, error) {
	ids := make([]int64, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}

	found, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[int64]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	graded := make([]GradedAnswer, len(answers))
	for i, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, &NotFoundError{Message: fmt.Sprintf("Question %d not found", a.QuestionID)}
		}
		if q.DocumentID != documentID {
			return nil, validationErr(fmt.Sprintf("answers[%d].question_id", i), "Question does not belong to this document")
		}
		graded[i] = GradedAnswer{Question: q, SelectedOption: a.SelectedOption}
	}
	return graded, nil
}
