package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"assessment-backend/internal/middleware"
	"assessment-backend/internal/models"
)

type quizService interface {
	Generate(ctx context.Context, userID uuid.UUID, documentID int64, count int, difficulty string) (*models.QuestionSet, error)
	CurrentSet(ctx context.Context, documentID int64) (*models.QuestionSet, error)
}

type QuizHandler struct {
	quizzes quizService
}

func NewQuizHandler(quizzes quizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	documentID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	set, err := h.quizzes.Generate(r.Context(), userID, documentID, req.QuestionCount, req.Difficulty)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, set)
}

func (h *QuizHandler) Current(w http.ResponseWriter, r *http.Request) {
	documentID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	set, err := h.quizzes.CurrentSet(r.Context(), documentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}
