package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"assessment-backend/internal/middleware"
	"assessment-backend/internal/models"
)

type progressService interface {
	UserProgress(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)
	Recommendations(ctx context.Context, userID uuid.UUID) ([]models.RecommendationEntry, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error)
	HistoryForDocument(ctx context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error)
	CompletedQuestions(ctx context.Context, userID uuid.UUID, historyID int64) (*models.CompletedQuiz, error)
	TrackView(ctx context.Context, userID uuid.UUID, documentID int64) (*models.StudiedDocument, error)
	StudiedDocuments(ctx context.Context, userID uuid.UUID) ([]models.StudiedDocument, error)
}

type ProgressHandler struct {
	progress progressService
}

func NewProgressHandler(progress progressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func (h *ProgressHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.UserProgress(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProgressHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progress.Recommendations(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": entries})
}

func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.progress.History(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
}

func (h *ProgressHandler) DocumentHistory(w http.ResponseWriter, r *http.Request) {
	documentID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	records, err := h.progress.HistoryForDocument(r.Context(), middleware.GetUserID(r.Context()), documentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
}

func (h *ProgressHandler) CompletedQuestions(w http.ResponseWriter, r *http.Request) {
	historyID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz history ID", r))
		return
	}

	c, err := h.progress.CompletedQuestions(r.Context(), middleware.GetUserID(r.Context()), historyID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ProgressHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	documentID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	studied, err := h.progress.TrackView(r.Context(), middleware.GetUserID(r.Context()), documentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, studied)
}

func (h *ProgressHandler) StudiedDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.progress.StudiedDocuments(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"studied_documents": docs})
}
