package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFirstCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{"nil response", nil, "", true},
		{"no candidates", &genai.GenerateContentResponse{}, "", true},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, "", true},
		{"no parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}, "", true},
		{
			"first part not text",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{
				Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}, genai.Text("later")},
			}}}},
			"", true,
		},
		{
			"first part text",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("hello"), genai.Text(" world")}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("second candidate")}}},
			}},
			"hello", false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := firstCandidateText(tc.resp)
			if tc.wantErr {
				var ue *UpstreamError
				if !errors.As(err, &ue) {
					t.Fatalf("Expected UpstreamError, got %v", err)
				}
				if ue.Retryable {
					t.Error("Malformed envelopes must not be retried")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifyGeminiError(t *testing.T) {
	httpAPIErr := func(code int) error {
		ae, ok := apierror.FromError(&googleapi.Error{Code: code, Message: "upstream"})
		if !ok {
			t.Fatalf("apierror.FromError failed for %d", code)
		}
		return ae
	}

	tests := []struct {
		name       string
		err        error
		retryable  bool
		statusCode int
	}{
		{"http 503 via apierror", httpAPIErr(503), true, 503},
		{"http 429 via apierror", httpAPIErr(429), true, 429},
		{"http 400 via apierror", httpAPIErr(400), false, 400},
		{"raw googleapi 500", fmt.Errorf("call: %w", &googleapi.Error{Code: 500}), true, 500},
		{"raw googleapi 403", &googleapi.Error{Code: 403}, false, 403},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true, 0},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), false, 0},
		{"blocked", &genai.BlockedError{}, false, 0},
		{"caller canceled", context.Canceled, false, 0},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), true, 0},
		{"transport", errors.New("dial tcp: connection refused"), true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyGeminiError(tc.err)
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("Expected UpstreamError, got %v", err)
			}
			if ue.Retryable != tc.retryable {
				t.Errorf("Expected retryable=%v, got %v", tc.retryable, ue.Retryable)
			}
			if ue.StatusCode != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, ue.StatusCode)
			}
		})
	}
}

func TestClassifyGeminiError_KeepsUpstreamError(t *testing.T) {
	orig := &UpstreamError{StatusCode: 418, Err: errors.New("teapot")}
	if got := classifyGeminiError(orig); got != error(orig) {
		t.Errorf("Expected the same error back, got %v", got)
	}
}
