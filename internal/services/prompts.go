package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"assessment-backend/internal/models"
)

const (
	chatContentLimit       = 8000
	generationContentLimit = 6000
	gradingContentLimit    = 3000
	truncationMarker       = "..."

	minQuestionCount = 1
	maxQuestionCount = 20

	maxCandidateDocuments = 5
	maxRecommendations    = 3
)

// GradedAnswer pairs a learner's choice with the stored question it answers.
type GradedAnswer struct {
	Question       models.Question
	SelectedOption int
}

// truncateContent keeps the first limit characters and appends a marker when it cuts.
func truncateContent(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit]) + truncationMarker
}

func normalizeDifficulty(difficulty string) (string, bool) {
	d := strings.ToUpper(strings.TrimSpace(difficulty))
	switch d {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return d, true
	}
	return "", false
}

func validateGenerationParams(count int, difficulty string) (string, error) {
	fields := map[string]string{}
	if count < minQuestionCount || count > maxQuestionCount {
		fields["question_count"] = fmt.Sprintf("Must be between %d and %d", minQuestionCount, maxQuestionCount)
	}
	d, ok := normalizeDifficulty(difficulty)
	if !ok {
		fields["difficulty"] = "Must be one of EASY, MEDIUM, HARD"
	}
	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}
	return d, nil
}

func buildChatPrompt(content, question string) string {
	var b strings.Builder

	b.WriteString("You are a knowledgeable educational assistant. Based on the following document content, ")
	b.WriteString("answer the learner's question accurately and educationally.\n")
	b.WriteString("Your answer must be in the same language the learner uses in their question.\n")

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(truncateContent(content, chatContentLimit))
	b.WriteString("\n---END---\n")

	b.WriteString("\nLearner question: ")
	b.WriteString(question)
	b.WriteString("\n\nProvide a clear, informative answer:")

	return b.String()
}

func buildGenerationPrompt(content string, count int, difficulty string) (string, error) {
	d, err := validateGenerationParams(count, difficulty)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("Generate exactly %d multiple choice questions based on the following content ", count))
	b.WriteString("and in the same language as the content. ")
	b.WriteString(fmt.Sprintf("Each question should be %s difficulty level.\n", strings.ToLower(d)))
	b.WriteString("CRITICAL: Return ONLY valid JSON. No preamble, no markdown.\n")

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(truncateContent(content, generationContentLimit))
	b.WriteString("\n---END---\n")

	b.WriteString(`
Return a JSON object with this exact structure:
{
  "questions": [
    {
      "text": "Question text here",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctOption": 0,
      "explanation": "Explanation of why this is correct"
    }
  ]
}

Make sure:
- Each question has exactly 4 options
- correctOption is a number from 0-3 (0=first option, 1=second, etc.)
- Questions are relevant to the content
- Options are plausible but only one is correct
`)

	return b.String(), nil
}

func buildGradingPrompt(title, content string, answers []GradedAnswer, candidates []models.Document) string {
	var b strings.Builder

	b.WriteString("Evaluate the learner's quiz performance, explain the wrong answers and recommend what to study next.\n")
	b.WriteString(fmt.Sprintf("Current document: %s\n", title))

	if content != "" {
		b.WriteString("\n---CONTENT---\n")
		b.WriteString(truncateContent(content, gradingContentLimit))
		b.WriteString("\n---END---\n")
	}

	b.WriteString("\nGraded questions (selected vs correct option, options are 0-indexed):\n")
	for _, a := range answers {
		q := a.Question
		b.WriteString(fmt.Sprintf("- questionId %d: %s\n", q.ID, q.Text))
		for i, opt := range q.Options {
			b.WriteString(fmt.Sprintf("    %d) %s\n", i, opt))
		}
		b.WriteString(fmt.Sprintf("    selected: %d, correct: %d\n", a.SelectedOption, q.CorrectOption))
	}

	b.WriteString("\nAvailable documents:\n")
	if len(candidates) > maxCandidateDocuments {
		candidates = candidates[:maxCandidateDocuments]
	}
	if len(candidates) == 0 {
		b.WriteString("(none)\n")
	}
	for _, d := range candidates {
		b.WriteString(fmt.Sprintf("- documentId %d: %s\n", d.ID, d.Title))
	}

	b.WriteString(fmt.Sprintf(`
Return JSON with this structure:
{
  "score": 85.0,
  "explanations": [
    {"questionId": 1, "explanation": "Brief explanation for the wrong answer"}
  ],
  "recommendations": [
    {"documentId": 123, "title": "Document title", "reason": "Why this document is recommended"}
  ]
}

Calculate score as the percentage of correct answers (0-100).
Only include explanations for wrong answers, using the questionId values above.
Recommend up to %d documents from the available documents list only. Use an empty array when none fit.
`, maxRecommendations))

	return b.String()
}
