package services

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/metrics"
)

// Fixed generation policy. Callers cannot tune these.
const (
	generationTemperature     = 0.7
	generationTopK            = 40
	generationTopP            = 0.95
	generationMaxOutputTokens = 2048
)

// TextGenerator sends one prompt to a generative text service and returns
// the single text payload of its reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type RetryConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	InitialWait    time.Duration
	MaxWait        time.Duration
	Multiplier     float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		AttemptTimeout: 60 * time.Second,
		InitialWait:    500 * time.Millisecond,
		MaxWait:        8 * time.Second,
		Multiplier:     2,
	}
}

// RetryGenerator retries retryable upstream failures with exponential
// backoff and jitter. Each attempt runs under its own timeout.
type RetryGenerator struct {
	inner    TextGenerator
	config   RetryConfig
	provider string
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func WithRetry(inner TextGenerator, provider string, cfg RetryConfig, log *logger.Logger) *RetryGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &RetryGenerator{inner: inner, config: cfg, provider: provider, log: log, sleep: sleepCtx}
}

func (r *RetryGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		text, err := r.attempt(ctx, prompt)
		if err == nil {
			metrics.UpstreamCalls.WithLabelValues(r.provider, "ok").Inc()
			return text, nil
		}
		lastErr = err

		// Caller gave up: stop immediately.
		if ctx.Err() != nil {
			metrics.UpstreamCalls.WithLabelValues(r.provider, "canceled").Inc()
			return "", ctx.Err()
		}

		if !isRetryable(err) {
			metrics.UpstreamCalls.WithLabelValues(r.provider, "failed").Inc()
			return "", err
		}

		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt)
		r.log.Warn("upstream attempt failed, retrying",
			"provider", r.provider, "attempt", attempt+1, "wait", wait, "error", err)
		metrics.UpstreamRetries.Inc()

		if err := r.sleep(ctx, wait); err != nil {
			metrics.UpstreamCalls.WithLabelValues(r.provider, "canceled").Inc()
			return "", err
		}
	}

	metrics.UpstreamCalls.WithLabelValues(r.provider, "exhausted").Inc()
	return "", lastErr
}

func (r *RetryGenerator) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx := ctx
	if r.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.config.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := r.inner.Generate(attemptCtx, prompt)
	metrics.UpstreamDuration.WithLabelValues(r.provider).Observe(time.Since(start).Seconds())

	// A per-attempt timeout while the caller is still waiting is a transient upstream failure.
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			err = &UpstreamError{Retryable: true, Err: err}
		}
	}
	return text, err
}

func (r *RetryGenerator) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.MaxWait > 0 && wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func isRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
