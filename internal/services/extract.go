package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"assessment-backend/internal/models"
)

// responseSchema names a JSON Schema definition for one model output shape.
type responseSchema struct {
	Name       string
	Definition map[string]any
}

var questionSetSchema = responseSchema{
	Name: "question_set",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": minQuestionCount,
				"maxItems": maxQuestionCount,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"text", "options", "correctOption"},
					"properties": map[string]any{
						"text": map[string]any{"type": "string", "minLength": 1},
						"options": map[string]any{
							"type":     "array",
							"minItems": models.OptionCount,
							"maxItems": models.OptionCount,
							"items":    map[string]any{"type": "string"},
						},
						"correctOption": map[string]any{"type": "integer", "minimum": 0, "maximum": models.OptionCount - 1},
						"explanation":   map[string]any{"type": []any{"string", "null"}},
					},
				},
			},
		},
	},
}

var evaluationSchema = responseSchema{
	Name: "evaluation",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"score", "explanations", "recommendations"},
		"properties": map[string]any{
			"score": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"explanations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"questionId", "explanation"},
					"properties": map[string]any{
						"questionId":  map[string]any{"type": "integer"},
						"explanation": map[string]any{"type": "string"},
					},
				},
			},
			"recommendations": map[string]any{
				"type":     "array",
				"maxItems": maxRecommendations,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"documentId", "title", "reason"},
					"properties": map[string]any{
						"documentId": map[string]any{"type": "integer"},
						"title":      map[string]any{"type": "string"},
						"reason":     map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compiledSchema(schema responseSchema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, not Go ints.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	defParsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

// stripCodeFence removes a surrounding markdown fence the model may add.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSON strips fences, validates against schema and decodes into out.
// Every failure is a *ParseError.
func extractJSON(raw string, schema responseSchema, out any) error {
	clean := stripCodeFence(raw)
	if clean == "" {
		return parseErrf("empty response")
	}

	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(clean))
	if err != nil {
		return parseErrf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema(schema)
	if err != nil {
		return parseErrf("schema %q: %w", schema.Name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return parseErrf("schema validation failed: %w", err)
	}

	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return parseErrf("decode %s: %w", schema.Name, err)
	}
	return nil
}

type generatedQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Explanation   *string  `json:"explanation"`
}

type generatedQuestionSet struct {
	Questions []generatedQuestion `json:"questions"`
}

// extractQuestions turns model output into exactly count unsaved questions.
func extractQuestions(raw string, count int, difficulty string) ([]models.Question, error) {
	var payload generatedQuestionSet
	if err := extractJSON(raw, questionSetSchema, &payload); err != nil {
		return nil, err
	}
	if len(payload.Questions) != count {
		return nil, parseErrf("expected %d questions, got %d", count, len(payload.Questions))
	}

	questions := make([]models.Question, len(payload.Questions))
	for i, g := range payload.Questions {
		if strings.TrimSpace(g.Text) == "" {
			return nil, parseErrf("question %d has empty text", i)
		}
		var explanation *string
		if g.Explanation != nil && strings.TrimSpace(*g.Explanation) != "" {
			e := strings.TrimSpace(*g.Explanation)
			explanation = &e
		}
		questions[i] = models.Question{
			Text:          strings.TrimSpace(g.Text),
			Options:       g.Options,
			CorrectOption: g.CorrectOption,
			Explanation:   explanation,
			Difficulty:    difficulty,
		}
	}
	return questions, nil
}

type evaluationPayload struct {
	Score        float64 `json:"score"`
	Explanations []struct {
		QuestionID  int64  `json:"questionId"`
		Explanation string `json:"explanation"`
	} `json:"explanations"`
	Recommendations []struct {
		DocumentID int64  `json:"documentId"`
		Title      string `json:"title"`
		Reason     string `json:"reason"`
	} `json:"recommendations"`
}

// extractEvaluation decodes a grading reply. Explanations must reference wrongly
// answered questions and recommendations must reference candidate documents.
func extractEvaluation(raw string, graded []GradedAnswer, candidates []models.Document) (*models.EvaluationResult, error) {
	var payload evaluationPayload
	if err := extractJSON(raw, evaluationSchema, &payload); err != nil {
		return nil, err
	}

	// question id -> answered correctly
	gradedIDs := make(map[int64]bool, len(graded))
	for _, a := range graded {
		gradedIDs[a.Question.ID] = a.SelectedOption == a.Question.CorrectOption
	}
	candidateTitles := make(map[int64]string, len(candidates))
	for _, d := range candidates {
		candidateTitles[d.ID] = d.Title
	}

	result := &models.EvaluationResult{
		Score:           payload.Score,
		Explanations:    make([]models.Explanation, 0, len(payload.Explanations)),
		Recommendations: make([]models.Recommendation, 0, len(payload.Recommendations)),
	}

	for _, e := range payload.Explanations {
		correct, ok := gradedIDs[e.QuestionID]
		if !ok {
			return nil, parseErrf("explanation references ungraded question %d", e.QuestionID)
		}
		if correct {
			return nil, parseErrf("explanation references correctly answered question %d", e.QuestionID)
		}
		result.Explanations = append(result.Explanations, models.Explanation{
			QuestionID:  e.QuestionID,
			Explanation: e.Explanation,
		})
	}

	for _, r := range payload.Recommendations {
		title, ok := candidateTitles[r.DocumentID]
		if !ok {
			return nil, parseErrf("recommendation references unknown document %d", r.DocumentID)
		}
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			DocumentID: r.DocumentID,
			Title:      title,
			Reason:     r.Reason,
		})
	}

	return result, nil
}
