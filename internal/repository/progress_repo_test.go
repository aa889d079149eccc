package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"assessment-backend/internal/models"
)

func TestRecommendationsEncodeDecode(t *testing.T) {
	recs := []models.Recommendation{
		{DocumentID: 7, Title: "Linear Algebra", Reason: "Builds on vectors"},
	}

	raw, err := encodeRecommendations(recs)
	if err != nil {
		t.Fatalf("Unexpected encode error: %v", err)
	}

	decoded, err := decodeRecommendations(raw)
	if err != nil {
		t.Fatalf("Unexpected decode error: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != recs[0] {
		t.Errorf("Expected %+v, got %+v", recs, decoded)
	}
}

func TestEncodeRecommendations_NilBecomesEmptyArray(t *testing.T) {
	raw, err := encodeRecommendations(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if raw != "[]" {
		t.Errorf("Expected '[]', got %q", raw)
	}
}

func TestDecodeRecommendations(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"empty column", "", 0, false},
		{"empty array", "[]", 0, false},
		{"null", "null", 0, false},
		{"two entries", `[{"document_id":1,"title":"a","reason":"r"},{"document_id":2,"title":"b","reason":"r"}]`, 2, false},
		{"truncated", `[{"document_id":1,`, 0, true},
		{"wrong shape", `{"document_id":1}`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := decodeRecommendations(tc.raw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && len(recs) != tc.want {
				t.Errorf("Expected %d recommendations, got %d", tc.want, len(recs))
			}
		})
	}
}

func TestMapNotFound(t *testing.T) {
	if !errors.Is(mapNotFound(pgx.ErrNoRows), ErrNotFound) {
		t.Error("Expected pgx.ErrNoRows to map to ErrNotFound")
	}
	other := errors.New("connection reset")
	if mapNotFound(other) != other {
		t.Error("Expected other errors to pass through")
	}
}
