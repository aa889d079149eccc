package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply from the AI chat.
type ChatResponse struct {
	Answer             string   `json:"answer"`
	SuggestedFollowUps []string `json:"suggested_follow_ups"`
}

// ChatInteraction is one logged question/answer exchange.
type ChatInteraction struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	DocumentID int64     `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}
