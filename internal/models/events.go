package models

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	EventConnected        = "connected"
	EventQuizGenerated    = "quiz_generated"
	EventSubmissionGraded = "submission_graded"
)

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ConnectedEvent is the first message on every socket.
type ConnectedEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

type QuizGeneratedEvent struct {
	DocumentID    int64  `json:"document_id"`
	QuestionCount int    `json:"question_count"`
	Difficulty    string `json:"difficulty"`
}

type SubmissionGradedEvent struct {
	DocumentID    int64   `json:"document_id"`
	QuizHistoryID int64   `json:"quiz_history_id"`
	Score         float64 `json:"score"`
}

// UserChannel is the pub/sub channel carrying a user's push updates.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
