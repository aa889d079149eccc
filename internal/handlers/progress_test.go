package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"assessment-backend/internal/models"
	"assessment-backend/internal/services"
)

type stubProgressService struct {
	userID     uuid.UUID
	documentID int64
	historyID  int64
	err        error
}

func (s *stubProgressService) UserProgress(_ context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	s.userID = userID
	return &models.UserProgress{
		AttemptCount:       2,
		AverageScore:       75,
		PerCategoryAverage: []models.CategoryAverage{{Category: "biology", Average: 75}},
	}, s.err
}

func (s *stubProgressService) Recommendations(_ context.Context, userID uuid.UUID) ([]models.RecommendationEntry, error) {
	s.userID = userID
	return []models.RecommendationEntry{}, s.err
}

func (s *stubProgressService) History(_ context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error) {
	s.userID = userID
	return []models.QuizHistoryRecord{{ID: 1}, {ID: 2}}, s.err
}

func (s *stubProgressService) HistoryForDocument(_ context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error) {
	s.userID, s.documentID = userID, documentID
	return []models.QuizHistoryRecord{{ID: 1, DocumentID: documentID}}, s.err
}

func (s *stubProgressService) CompletedQuestions(_ context.Context, userID uuid.UUID, historyID int64) (*models.CompletedQuiz, error) {
	s.userID, s.historyID = userID, historyID
	if s.err != nil {
		return nil, s.err
	}
	return &models.CompletedQuiz{QuizHistoryID: historyID}, nil
}

func (s *stubProgressService) TrackView(_ context.Context, userID uuid.UUID, documentID int64) (*models.StudiedDocument, error) {
	s.userID, s.documentID = userID, documentID
	if s.err != nil {
		return nil, s.err
	}
	return &models.StudiedDocument{DocumentID: documentID, Title: "Photosynthesis", ViewCount: 3}, nil
}

func (s *stubProgressService) StudiedDocuments(_ context.Context, userID uuid.UUID) ([]models.StudiedDocument, error) {
	s.userID = userID
	return []models.StudiedDocument{{DocumentID: 4}, {DocumentID: 2}}, s.err
}

func TestProgressHandler_Progress(t *testing.T) {
	userID := uuid.New()
	svc := &stubProgressService{}
	h := NewProgressHandler(svc)

	rr := httptest.NewRecorder()
	h.Progress(rr, newRequest(http.MethodGet, "/api/v1/progress", nil, userID, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if svc.userID != userID {
		t.Error("Expected authenticated user to be passed through")
	}

	var body map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&body)
	if body["attempt_count"] != float64(2) || body["average_score"] != float64(75) {
		t.Errorf("Unexpected body %v", body)
	}
	if cats, ok := body["per_category_average"].([]interface{}); !ok || len(cats) != 1 {
		t.Errorf("Expected one category, got %v", body["per_category_average"])
	}
}

func TestProgressHandler_Lists(t *testing.T) {
	svc := &stubProgressService{}
	h := NewProgressHandler(svc)

	rr := httptest.NewRecorder()
	h.Recommendations(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), nil))
	var recs map[string][]interface{}
	json.NewDecoder(rr.Body).Decode(&recs)
	if recs["recommendations"] == nil {
		t.Errorf("Expected recommendations array, got %v", recs)
	}

	rr = httptest.NewRecorder()
	h.History(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), nil))
	var history map[string][]interface{}
	json.NewDecoder(rr.Body).Decode(&history)
	if len(history["history"]) != 2 {
		t.Errorf("Expected 2 history entries, got %v", history)
	}

	rr = httptest.NewRecorder()
	h.DocumentHistory(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": "42"}))
	if rr.Code != http.StatusOK || svc.documentID != 42 {
		t.Errorf("Expected document 42 history, got status %d doc %d", rr.Code, svc.documentID)
	}
}

func TestProgressHandler_CompletedQuestions(t *testing.T) {
	svc := &stubProgressService{}
	h := NewProgressHandler(svc)

	rr := httptest.NewRecorder()
	h.CompletedQuestions(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": "9"}))
	if rr.Code != http.StatusOK || svc.historyID != 9 {
		t.Errorf("Expected history 9, got status %d id %d", rr.Code, svc.historyID)
	}

	svc.err = &services.NotFoundError{Message: "Quiz history 9 not found"}
	rr = httptest.NewRecorder()
	h.CompletedQuestions(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": "9"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.CompletedQuestions(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), map[string]string{"id": "x"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestProgressHandler_TrackView(t *testing.T) {
	userID := uuid.New()
	svc := &stubProgressService{}
	h := NewProgressHandler(svc)

	rr := httptest.NewRecorder()
	h.TrackView(rr, newRequest(http.MethodPost, "/", nil, userID, map[string]string{"id": "42"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if svc.userID != userID || svc.documentID != 42 {
		t.Errorf("Expected user and document 42 to be passed through, got %s %d", svc.userID, svc.documentID)
	}
	var body models.StudiedDocument
	json.NewDecoder(rr.Body).Decode(&body)
	if body.ViewCount != 3 {
		t.Errorf("Expected view count 3, got %+v", body)
	}

	rr = httptest.NewRecorder()
	h.TrackView(rr, newRequest(http.MethodPost, "/", nil, userID, map[string]string{"id": "0"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	svc.err = &services.NotFoundError{Message: "Document 42 not found"}
	rr = httptest.NewRecorder()
	h.TrackView(rr, newRequest(http.MethodPost, "/", nil, userID, map[string]string{"id": "42"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestProgressHandler_StudiedDocuments(t *testing.T) {
	h := NewProgressHandler(&stubProgressService{})

	rr := httptest.NewRecorder()
	h.StudiedDocuments(rr, newRequest(http.MethodGet, "/", nil, uuid.New(), nil))
	var body map[string][]models.StudiedDocument
	json.NewDecoder(rr.Body).Decode(&body)
	docs := body["studied_documents"]
	if len(docs) != 2 || docs[0].DocumentID != 4 {
		t.Errorf("Expected service order preserved, got %+v", docs)
	}
}
