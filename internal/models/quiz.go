package models

import (
	"time"
)

const OptionCount = 4

const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

type Question struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	Text          string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Explanation   *string   `json:"explanation,omitempty"`
	Difficulty    string    `json:"difficulty"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuestionSet is the live set of questions for a document.
type QuestionSet struct {
	DocumentID int64      `json:"document_id"`
	Questions  []Question `json:"questions"`
}

type GenerateQuestionsRequest struct {
	QuestionCount int    `json:"question_count"`
	Difficulty    string `json:"difficulty"`
}

type Answer struct {
	QuestionID     int64 `json:"question_id"`
	SelectedOption int   `json:"selected_option"`
}

type SubmitAnswersRequest struct {
	Answers          []Answer `json:"answers"`
	TimeTakenSeconds *int     `json:"time_taken_seconds"`
}

type Explanation struct {
	QuestionID  int64  `json:"question_id"`
	Explanation string `json:"explanation"`
}

type Recommendation struct {
	DocumentID int64  `json:"document_id"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

type EvaluationResult struct {
	Score           float64          `json:"score"`
	Explanations    []Explanation    `json:"explanations"`
	Recommendations []Recommendation `json:"recommendations"`
}
