package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/models"
)

const maxChatMessageLength = 4000

var chatFollowUps = []string{
	"Can you explain this in more detail?",
	"What are the key takeaways?",
	"How does this relate to other concepts?",
}

type interactionStore interface {
	Create(ctx context.Context, i *models.ChatInteraction) error
}

type ChatService struct {
	content      ContentSource
	generator    TextGenerator
	interactions interactionStore
	log          *logger.Logger
}

func NewChatService(content ContentSource, generator TextGenerator, interactions interactionStore, log *logger.Logger) *ChatService {
	return &ChatService{
		content:      content,
		generator:    generator,
		interactions: interactions,
		log:          log.With("service", "chat"),
	}
}

// Ask answers a single question about a document. No conversation state is kept.
func (s *ChatService) Ask(ctx context.Context, userID uuid.UUID, documentID int64, message string) (*models.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationErr("message", "Message is required")
	}
	if utf8.RuneCountInString(message) > maxChatMessageLength {
		return nil, validationErr("message", "Message is too long")
	}

	content, err := s.content.GetContent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, buildChatPrompt(content, message))
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return nil, &UpstreamError{Err: errMalformedEnvelope}
	}

	s.logInteraction(ctx, &models.ChatInteraction{
		UserID:     userID,
		DocumentID: documentID,
		Question:   message,
		Answer:     answer,
	})

	followUps := make([]string, len(chatFollowUps))
	copy(followUps, chatFollowUps)
	return &models.ChatResponse{Answer: answer, SuggestedFollowUps: followUps}, nil
}

func (s *ChatService) logInteraction(ctx context.Context, i *models.ChatInteraction) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.interactions.Create(ctx, i); err != nil {
		s.log.Warn("failed to log chat interaction", "document_id", i.DocumentID, "user_id", i.UserID, "error", err)
	}
}
