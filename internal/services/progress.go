package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/models"
	"assessment-backend/internal/repository"
)

type progressStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
}

type historyStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error)
	ListByUserAndDocument(ctx context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error)
	GetByID(ctx context.Context, id int64) (*models.QuizHistoryRecord, error)
	GetCompletedQuiz(ctx context.Context, historyID int64) (*models.CompletedQuiz, error)
}

type studiedStore interface {
	TrackView(ctx context.Context, userID uuid.UUID, documentID int64) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudiedDocument, error)
}

type ProgressService struct {
	progress  progressStore
	history   historyStore
	studied   studiedStore
	documents documentStore
	log       *logger.Logger
}

func NewProgressService(progress progressStore, history historyStore, studied studiedStore, documents documentStore, log *logger.Logger) *ProgressService {
	return &ProgressService{
		progress:  progress,
		history:   history,
		studied:   studied,
		documents: documents,
		log:       log.With("service", "progress"),
	}
}

// documentCache resolves documents once per call; nil means the document is gone.
type documentCache struct {
	documents documentStore
	seen      map[int64]*models.Document
}

func (c *documentCache) get(ctx context.Context, id int64) (*models.Document, error) {
	if d, ok := c.seen[id]; ok {
		return d, nil
	}
	d, err := c.documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		d, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.seen[id] = d
	return d, nil
}

func (s *ProgressService) newDocumentCache() *documentCache {
	return &documentCache{documents: s.documents, seen: make(map[int64]*models.Document)}
}

// UserProgress counts and averages all of the user's attempts. Per-category
// averages only include attempts whose document still exists.
func (s *ProgressService) UserProgress(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	result := &models.UserProgress{
		AttemptCount:       len(records),
		PerCategoryAverage: []models.CategoryAverage{},
	}
	if len(records) == 0 {
		return result, nil
	}

	type bucket struct {
		sum   int
		count int
	}
	buckets := map[string]*bucket{}
	docs := s.newDocumentCache()
	total := 0

	for _, r := range records {
		total += r.Score

		doc, err := docs.get(ctx, r.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("load document %d: %w", r.DocumentID, err)
		}
		if doc == nil {
			continue
		}
		b, ok := buckets[doc.Category]
		if !ok {
			b = &bucket{}
			buckets[doc.Category] = b
		}
		b.sum += r.Score
		b.count++
	}

	result.AverageScore = float64(total) / float64(len(records))
	for category, b := range buckets {
		result.PerCategoryAverage = append(result.PerCategoryAverage, models.CategoryAverage{
			Category: category,
			Average:  float64(b.sum) / float64(b.count),
		})
	}
	sort.Slice(result.PerCategoryAverage, func(i, j int) bool {
		return result.PerCategoryAverage[i].Category < result.PerCategoryAverage[j].Category
	})

	return result, nil
}

// Recommendations flattens stored recommendations, newest first. Unreadable
// records and recommendations for deleted documents are skipped.
func (s *ProgressService) Recommendations(ctx context.Context, userID uuid.UUID) ([]models.RecommendationEntry, error) {
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	entries := []models.RecommendationEntry{}
	docs := s.newDocumentCache()
	for _, r := range records {
		if r.RecommendationsCorrupt {
			s.log.Warn("skipping unreadable recommendations", "progress_id", r.ID, "user_id", userID)
			continue
		}
		for _, rec := range r.Recommendations {
			doc, err := docs.get(ctx, rec.DocumentID)
			if err != nil {
				return nil, fmt.Errorf("load document %d: %w", rec.DocumentID, err)
			}
			if doc == nil {
				continue
			}
			entries = append(entries, models.RecommendationEntry{
				Recommendation:   rec,
				SourceDocumentID: r.DocumentID,
				RecommendedAt:    r.CompletedAt,
			})
		}
	}
	return entries, nil
}

func (s *ProgressService) History(ctx context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error) {
	records, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz history: %w", err)
	}
	if records == nil {
		records = []models.QuizHistoryRecord{}
	}
	return records, nil
}

func (s *ProgressService) HistoryForDocument(ctx context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error) {
	records, err := s.history.ListByUserAndDocument(ctx, userID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list quiz history: %w", err)
	}
	if records == nil {
		records = []models.QuizHistoryRecord{}
	}
	return records, nil
}

// CompletedQuestions returns the graded questions of one of the user's attempts.
func (s *ProgressService) CompletedQuestions(ctx context.Context, userID uuid.UUID, historyID int64) (*models.CompletedQuiz, error) {
	notFound := &NotFoundError{Message: fmt.Sprintf("Quiz history %d not found", historyID)}

	h, err := s.history.GetByID(ctx, historyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz history: %w", err)
	}
	if h.UserID != userID {
		return nil, notFound
	}

	c, err := s.history.GetCompletedQuiz(ctx, historyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("load completed quiz: %w", err)
	}
	return c, nil
}

// TrackView counts one view of a document by the user.
func (s *ProgressService) TrackView(ctx context.Context, userID uuid.UUID, documentID int64) (*models.StudiedDocument, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, documentLookupError(documentID, err)
	}

	count, err := s.studied.TrackView(ctx, userID, documentID)
	if err != nil {
		return nil, fmt.Errorf("track document view: %w", err)
	}

	return &models.StudiedDocument{
		DocumentID:     doc.ID,
		Title:          doc.Title,
		Category:       doc.Category,
		ViewCount:      count,
		LastAccessedAt: time.Now(),
	}, nil
}

// StudiedDocuments lists the documents the user has opened, most recent first.
func (s *ProgressService) StudiedDocuments(ctx context.Context, userID uuid.UUID) ([]models.StudiedDocument, error) {
	docs, err := s.studied.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list studied documents: %w", err)
	}
	if docs == nil {
		docs = []models.StudiedDocument{}
	}
	return docs, nil
}
