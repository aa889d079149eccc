package models

import (
	"time"

	"github.com/google/uuid"
)

type ProgressRecord struct {
	ID              int64            `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	DocumentID      int64            `json:"document_id"`
	Score           int              `json:"score"`
	Recommendations []Recommendation `json:"recommendations"`
	// Set by the repository when the stored recommendation payload could not be decoded.
	RecommendationsCorrupt bool      `json:"-"`
	CompletedAt            time.Time `json:"completed_at"`
}

type QuizHistoryRecord struct {
	ID               int64     `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	DocumentID       int64     `json:"document_id"`
	DocumentTitle    string    `json:"document_title"`
	Score            float64   `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	Difficulty       string    `json:"difficulty"`
	TimeTakenSeconds *int      `json:"time_taken_seconds"`
	CorrectAnswers   int       `json:"correct_answers"`
	CompletedAt      time.Time `json:"completed_at"`
}

// CompletedQuestion is a graded question exactly as it was presented.
type CompletedQuestion struct {
	QuestionID     int64    `json:"question_id"`
	Text           string   `json:"question_text"`
	Options        []string `json:"options"`
	CorrectOption  int      `json:"correct_option"`
	SelectedOption int      `json:"selected_option"`
	Difficulty     string   `json:"difficulty"`
}

type CompletedQuiz struct {
	ID            int64               `json:"id"`
	QuizHistoryID int64               `json:"quiz_history_id"`
	Questions     []CompletedQuestion `json:"questions"`
	CreatedAt     time.Time           `json:"created_at"`
}

type CategoryAverage struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
}

type UserProgress struct {
	AttemptCount       int               `json:"attempt_count"`
	AverageScore       float64           `json:"average_score"`
	PerCategoryAverage []CategoryAverage `json:"per_category_average"`
}

// RecommendationEntry is a stored recommendation flattened for listing.
type RecommendationEntry struct {
	Recommendation
	SourceDocumentID int64     `json:"source_document_id"`
	RecommendedAt    time.Time `json:"recommended_at"`
}

// StudiedDocument counts a user's views of one document.
type StudiedDocument struct {
	DocumentID     int64     `json:"document_id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	ViewCount      int       `json:"view_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
