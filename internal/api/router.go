package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/arcana/internal/api/middleware"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the dependencies of the HTTP API.
type RouterConfig struct {
	Readings   service.ReadingService
	Journals   service.JournalService
	JWTService auth.JWTService

	// Sessions enables the /api/sessions routes when set.
	Sessions SessionManager

	// Metrics records per-route request metrics when set.
	Metrics *metrics.Metrics

	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)

	readingHandler := NewReadingHandler(cfg.Readings, log)
	journalHandler := NewJournalHandler(cfg.Journals, log)
	authMiddleware := apiMiddleware.NewAuthMiddleware(cfg.JWTService, log)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Use(authMiddleware.Authenticate)

		// Catalog and draws
		r.Get("/cards", readingHandler.ListCatalog)
		r.Post("/draws", readingHandler.Draw)

		// Readings
		r.Get("/readings", readingHandler.ListReadings)
		r.Post("/readings", readingHandler.CreateReading)
		r.Post("/readings/ai", readingHandler.CreateAIReading)
		r.Get("/readings/{id}", readingHandler.GetReading)
		r.Post("/readings/{id}/save", readingHandler.SaveReading)

		// Journals
		r.Get("/journals", journalHandler.List)
		r.Post("/journals", journalHandler.Create)
		r.Get("/journals/{id}", journalHandler.Get)
		r.Put("/journals/{id}", journalHandler.Update)
		r.Delete("/journals/{id}", journalHandler.Delete)

		if cfg.Sessions != nil {
			sessionHandler := NewSessionHandler(cfg.Sessions, log)
			r.Post("/sessions", sessionHandler.Start)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Close)
				r.Post("/topic", sessionHandler.Topic)
				r.Post("/question", sessionHandler.Question)
				r.Post("/select", sessionHandler.Select)
				r.Post("/auto-select", sessionHandler.AutoSelect)
				r.Post("/retry", sessionHandler.Retry)
				r.Post("/restart", sessionHandler.Restart)
				r.Post("/save", sessionHandler.Save)
			})
		}
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
