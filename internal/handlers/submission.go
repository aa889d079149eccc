package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"assessment-backend/internal/middleware"
	"assessment-backend/internal/models"
)

type submissionService interface {
	Submit(ctx context.Context, userID uuid.UUID, documentID int64, answers []models.Answer, timeTakenSeconds *int) (*models.EvaluationResult, error)
}

type SubmissionHandler struct {
	submissions submissionService
}

func NewSubmissionHandler(submissions submissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	documentID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	var req models.SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	result, err := h.submissions.Submit(r.Context(), userID, documentID, req.Answers, req.TimeTakenSeconds)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
