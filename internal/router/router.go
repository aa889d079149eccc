package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"assessment-backend/internal/handlers"
	"assessment-backend/internal/logger"
	"assessment-backend/internal/metrics"
	"assessment-backend/internal/middleware"
)

type Handlers struct {
	Quiz       *handlers.QuizHandler
	Submission *handlers.SubmissionHandler
	Chat       *handlers.ChatHandler
	Progress   *handlers.ProgressHandler
	WebSocket  http.HandlerFunc
}

type Options struct {
	FrontendURL    string
	AIRateLimitMin int
	Log            *logger.Logger
}

// New builds the HTTP handler. ctx bounds background goroutines owned by
// middleware (rate limiter cleanup).
func New(ctx context.Context, jwtAuth *middleware.JWTAuth, h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(opts.FrontendURL))

	// Per-IP limit on endpoints that call the model
	aiLimiter := middleware.NewRateLimiter(ctx, opts.AIRateLimitMin, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Document Routes ────
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/questions", h.Quiz.Current)
			r.Get("/quiz-history", h.Progress.DocumentHistory)
			r.Post("/views", h.Progress.TrackView)

			r.Group(func(r chi.Router) {
				r.Use(aiLimiter.Middleware)
				r.Post("/questions/generate", h.Quiz.Generate)
				r.Post("/submissions", h.Submission.Submit)
				r.Post("/chat", h.Chat.AskQuestion)
			})
		})

		// ──── Progress Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/progress", h.Progress.Progress)
			r.Get("/recommendations", h.Progress.Recommendations)
			r.Get("/quiz-history", h.Progress.History)
			r.Get("/quiz-history/{id}/questions", h.Progress.CompletedQuestions)
			r.Get("/studied-documents", h.Progress.StudiedDocuments)
		})

		// ──── WebSocket ────
		r.Get("/ws", h.WebSocket)
	})

	return r
}
