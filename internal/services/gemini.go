package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errMalformedEnvelope = errors.New("response has no candidate text")

type GeminiConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	ConcurrentReqs int
}

// GeminiClient calls the Gemini generateContent endpoint with the fixed generation policy.
type GeminiClient struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(generationTemperature)
	model.SetTopK(generationTopK)
	model.SetTopP(generationTopP)
	model.SetMaxOutputTokens(generationMaxOutputTokens)

	concurrent := cfg.ConcurrentReqs
	if concurrent < 1 {
		concurrent = 1
	}
	rateChan := make(chan struct{}, concurrent)
	for i := 0; i < concurrent; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiClient{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (g *GeminiClient) Close() {
	g.client.Close()
}

// acquireRate blocks until a rate slot is available
func (g *GeminiClient) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GeminiClient) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.acquireRate(ctx); err != nil {
		return "", classifyGeminiError(err)
	}
	defer g.releaseRate()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return firstCandidateText(resp)
}

// firstCandidateText returns candidates[0].content.parts[0].text.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &UpstreamError{Err: errMalformedEnvelope}
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", &UpstreamError{Err: errMalformedEnvelope}
	}
	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return "", &UpstreamError{Err: errMalformedEnvelope}
	}
	return string(text), nil
}

func classifyGeminiError(err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &UpstreamError{Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &UpstreamError{Retryable: true, Err: err}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &UpstreamError{Err: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return &UpstreamError{StatusCode: code, Retryable: retryableStatus(code), Err: err}
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return grpcUpstreamError(st, err)
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &UpstreamError{StatusCode: gErr.Code, Retryable: retryableStatus(gErr.Code), Err: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return grpcUpstreamError(st, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &UpstreamError{Retryable: true, Err: err}
	}

	// Anything else never produced a response: treat as a transport failure.
	return &UpstreamError{Retryable: true, Err: err}
}

func grpcUpstreamError(st *status.Status, err error) *UpstreamError {
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		return &UpstreamError{Retryable: true, Err: err}
	default:
		return &UpstreamError{Err: err}
	}
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
