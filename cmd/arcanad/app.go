package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/config"
	"github.com/phrazzld/arcana/internal/domain/interpretation"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/gateway/remote"
	"github.com/phrazzld/arcana/internal/generation"
	"github.com/phrazzld/arcana/internal/platform/gemini"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/platform/postgres"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/phrazzld/arcana/internal/session"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/phrazzld/arcana/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores
	readingStore store.ReadingStore
	journalStore store.JournalStore

	// Service interfaces
	jwtService     auth.JWTService
	catalog        catalog.Source
	interpreter    *interpretation.Engine
	ai             generation.Interpreter
	readingService service.ReadingService
	journalService service.JournalService
	backend        *service.Backend

	// Observability
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	emitter  *events.InMemoryEventEmitter

	// Reading sessions
	scheduler *task.Scheduler
	sessions  *session.Manager
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Stores
	app.readingStore = postgres.NewPostgresReadingStore(db, logger)
	app.journalStore = postgres.NewPostgresJournalStore(db, logger)

	// Metrics and events
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.MustNewMetrics(app.registry)
	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(app.metrics)
	app.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		logger.Debug("session event",
			"session_id", e.SessionID.String(),
			"event_type", string(e.Type),
			"state", e.State)
		return nil
	}))

	// Interpretation
	app.interpreter, err = interpretation.NewDefaultEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to load interpretation table: %w", err)
	}
	if cfg.LLM.AIEnabled() {
		ai, err := gemini.NewAIInterpreter(ctx, logger, gemini.Config{
			APIKey:             cfg.LLM.GeminiAPIKey,
			ModelName:          cfg.LLM.ModelName,
			BaseURL:            cfg.LLM.BaseURL,
			MaxRetries:         cfg.LLM.MaxRetries,
			RetryDelay:         cfg.LLM.RetryDelay,
			PromptTemplatePath: cfg.LLM.PromptTemplatePath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AI interpreter: %w", err)
		}
		app.ai = ai
		logger.Info("AI interpreter initialized", "model", cfg.LLM.ModelName)
	} else {
		logger.Warn("no Gemini API key configured, AI readings are disabled")
	}

	// The backend always serves the embedded catalog. Sessions draw from the
	// remote gateway's catalog when one is configured.
	localCatalog := catalog.NewCachedSource(catalog.Embedded(), cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	app.catalog = localCatalog
	var remoteGateway *remote.Client
	if cfg.Gateway.BaseURL != "" {
		remoteGateway = remote.NewClient(
			&http.Client{Timeout: cfg.Gateway.Timeout},
			cfg.Gateway.BaseURL,
			remote.StaticToken(cfg.Gateway.Token),
			logger,
		)
		app.catalog = catalog.NewCachedSource(remoteGateway, cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
		logger.Info("sessions use remote gateway", "base_url", cfg.Gateway.BaseURL)
	}

	// Services
	readingCfg := service.DefaultReadingServiceConfig()
	readingCfg.ReversalProbability = cfg.Session.ReversalProbability
	readingRepo := service.NewReadingRepositoryAdapter(app.readingStore, db)
	app.readingService, err = service.NewReadingService(
		readingRepo,
		localCatalog,
		app.interpreter,
		app.ai,
		readingCfg,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reading service: %w", err)
	}

	app.journalService, err = service.NewJournalService(
		service.NewJournalRepositoryAdapter(app.journalStore, db),
		readingRepo,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal service: %w", err)
	}

	app.backend, err = service.NewBackend(app.readingService, app.journalService)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	// Sessions
	app.scheduler = task.NewScheduler(task.RealClock(), logger)
	app.sessions, err = session.NewManager(session.ManagerConfig{
		Session:       sessionConfig(cfg.Session),
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
	}, session.Deps{
		Catalog:     app.catalog,
		Interpreter: app.interpreter,
		Scheduler:   app.scheduler,
		Emitter:     app.emitter,
		Logger:      logger,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	app.sessions.SetGatewayResolver(gatewayResolver(app.backend, remoteGateway))

	logger.Info("Application initialized successfully")
	return app, nil
}

// sessionConfig maps the session settings onto the reference spread.
func sessionConfig(cfg config.SessionConfig) session.Config {
	out := session.DefaultConfig()
	out.WorkingSetSize = cfg.WorkingSetSize
	out.ReversalProbability = cfg.ReversalProbability
	out.ShuffleDuration = cfg.ShuffleDuration
	out.DealInterval = cfg.DealInterval
	out.RevealInterval = cfg.RevealInterval
	out.ServerAuthoritativeDraw = cfg.ServerAuthoritativeDraw
	out.LocalFallback = cfg.LocalFallback
	return out
}

// gatewayResolver binds each session to a backend. With a remote gateway
// every session shares it; otherwise the session talks to the in-process
// backend as its owner. Owners are user IDs.
func gatewayResolver(backend *service.Backend, remoteGateway *remote.Client) func(owner string) gateway.ReadingGateway {
	return func(owner string) gateway.ReadingGateway {
		if remoteGateway != nil {
			return remoteGateway
		}
		userID, err := uuid.Parse(owner)
		if err != nil {
			return nil
		}
		return backend.ForUser(userID)
	}
}

// router builds the HTTP handler for the application.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Readings:   app.readingService,
		Journals:   app.journalService,
		JWTService: app.jwtService,
		Sessions:   app.sessions,
		Metrics:    app.metrics,
		Gatherer:   app.registry,
		Logger:     app.logger,
	})
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.sessions != nil {
		app.sessions.CloseAll()
	}
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
