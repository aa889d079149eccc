package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"assessment-backend/internal/models"
	"assessment-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *services.ValidationError
		ce *services.ConflictError
		nf *services.NotFoundError
		ue *services.UpstreamError
		pe *services.ParseError
		se *services.SerializationError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", ve.Fields, r))
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", ce.Message, r))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", nf.Message, r))
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadGateway, errorResp("AI_ERROR", "Failed to get AI response", r))
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadGateway, errorResp("AI_RESPONSE_INVALID", "AI response could not be used", r))
	case errors.As(err, &se):
		writeJSON(w, http.StatusInternalServerError, errorResp("SERIALIZATION_ERROR", "Failed to store result", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// int64Param reads a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
