package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/interpretation"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/generation"
	"github.com/phrazzld/arcana/internal/store"
)

// LocalInterpreter is the deterministic interpretation engine.
type LocalInterpreter interface {
	Interpret(selection []domain.SelectedCard, d domain.Domain, question string) (domain.Interpretation, error)
}

// ReadingService provides the catalog, draws and reading persistence.
type ReadingService interface {
	// ListCatalog returns the full ordered card catalog.
	ListCatalog(ctx context.Context) ([]domain.Card, error)

	// DrawRandom draws count distinct cards with random orientation.
	DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error)

	// CreateReading persists a standard reading for userID. A complete
	// interpretation in req is kept; anything it lacks is filled by the
	// local engine.
	CreateReading(ctx context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error)

	// CreateAIReading interprets req with the AI interpreter and persists
	// the result for userID.
	CreateAIReading(ctx context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error)

	// SaveReading marks userID's reading as kept. Saving twice is a no-op.
	SaveReading(ctx context.Context, userID, readingID uuid.UUID) error

	// GetReading returns one of userID's readings.
	GetReading(ctx context.Context, userID, readingID uuid.UUID) (*domain.Reading, error)

	// ListReadings returns userID's readings, newest first.
	ListReadings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error)
}

// ReadingServiceConfig tunes draws and selection checks.
type ReadingServiceConfig struct {
	// Spread every persisted selection must fill.
	Spread domain.Spread

	// ReversalProbability is the chance each drawn card is reversed.
	ReversalProbability float64

	// RNG drives draws. Nil uses the process-wide source.
	RNG deck.RNG
}

// DefaultReadingServiceConfig returns the three-card reference setup.
func DefaultReadingServiceConfig() ReadingServiceConfig {
	return ReadingServiceConfig{
		Spread:              domain.ThreeCardSpread,
		ReversalProbability: 0.5,
	}
}

type readingServiceImpl struct {
	readingRepo ReadingRepository
	catalog     catalog.Source
	local       LocalInterpreter
	ai          generation.Interpreter
	cfg         ReadingServiceConfig
	logger      *slog.Logger
}

// NewReadingService creates a new ReadingService. ai may be nil, in which
// case AI readings fail with domain.ErrAIUnavailable.
// It returns an error if any of the required dependencies are nil.
func NewReadingService(
	readingRepo ReadingRepository,
	catalogSource catalog.Source,
	local LocalInterpreter,
	ai generation.Interpreter,
	cfg ReadingServiceConfig,
	logger *slog.Logger,
) (ReadingService, error) {
	if readingRepo == nil {
		return nil, &ReadingServiceError{Operation: "create_service", Message: "readingRepo cannot be nil"}
	}
	if catalogSource == nil {
		return nil, &ReadingServiceError{Operation: "create_service", Message: "catalogSource cannot be nil"}
	}
	if local == nil {
		return nil, &ReadingServiceError{Operation: "create_service", Message: "local interpreter cannot be nil"}
	}
	if cfg.Spread.Size() == 0 {
		return nil, &ReadingServiceError{Operation: "create_service", Message: "spread has no positions"}
	}
	if cfg.ReversalProbability < 0 || cfg.ReversalProbability > 1 {
		return nil, &ReadingServiceError{
			Operation: "create_service",
			Message:   fmt.Sprintf("reversal probability %v outside [0, 1]", cfg.ReversalProbability),
		}
	}
	if cfg.RNG == nil {
		cfg.RNG = deck.DefaultRNG()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &readingServiceImpl{
		readingRepo: readingRepo,
		catalog:     catalogSource,
		local:       local,
		ai:          ai,
		cfg:         cfg,
		logger:      logger.With("component", "reading_service"),
	}, nil
}

// ListCatalog implements ReadingService.
func (s *readingServiceImpl) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	cards, err := s.catalog.ListCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog", "error", err)
		return nil, NewReadingServiceError("list_catalog", "failed to load catalog", err)
	}
	return cards, nil
}

// DrawRandom implements ReadingService.
func (s *readingServiceImpl) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", domain.ErrValidation, count)
	}
	cards, err := s.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	drawn, err := deck.Draw(cards, count, s.cfg.ReversalProbability, s.cfg.RNG)
	if err != nil {
		s.logger.Warn("draw failed", "count", count, "catalog_size", len(cards), "error", err)
		return nil, NewReadingServiceError("draw_random", "failed to draw cards", err)
	}
	return drawn, nil
}

// CreateReading implements ReadingService.
func (s *readingServiceImpl) CreateReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	if req.Mode == "" {
		req.Mode = domain.ModeStandard
	}
	if req.Mode != domain.ModeStandard {
		return nil, fmt.Errorf("%w: %q readings are created through the AI endpoint", domain.ErrInvalidMode, req.Mode)
	}

	selection, err := s.canonicalSelection(ctx, req.Selection)
	if err != nil {
		return nil, err
	}
	local, err := s.local.Interpret(selection, req.Domain, req.Question)
	if err != nil {
		return nil, err
	}

	interp := local
	if req.Interpretation != nil {
		interp = interpretation.Reconcile(*req.Interpretation, local, selection)
	}

	return s.persist(ctx, "create_reading", userID, req, selection, interp)
}

// CreateAIReading implements ReadingService.
func (s *readingServiceImpl) CreateAIReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	if s.ai == nil {
		return nil, domain.ErrAIUnavailable
	}
	req.Mode = domain.ModeAI
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	selection, err := s.canonicalSelection(ctx, req.Selection)
	if err != nil {
		return nil, err
	}
	local, err := s.local.Interpret(selection, req.Domain, req.Question)
	if err != nil {
		return nil, err
	}

	authored, err := s.ai.Interpret(ctx, generation.Request{
		Domain:    req.Domain,
		Question:  req.Question,
		Selection: selection,
	})
	if err != nil {
		s.logger.Error("AI interpretation failed",
			"error", err,
			"user_id", userID,
			"domain", req.Domain)
		return nil, classifyGenerationError(err)
	}

	return s.persist(ctx, "create_ai_reading", userID, req, selection, interpretation.Reconcile(authored, local, selection))
}

// classifyGenerationError maps interpreter failures onto the reading error
// taxonomy so callers know whether a retry can help.
func classifyGenerationError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, generation.ErrContentBlocked):
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	case errors.Is(err, generation.ErrTransientFailure), errors.Is(err, generation.ErrInvalidResponse):
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	default:
		return NewReadingServiceError("create_ai_reading", "AI interpretation failed", err)
	}
}

func (s *readingServiceImpl) persist(
	ctx context.Context,
	op string,
	userID uuid.UUID,
	req gateway.ReadingRequest,
	selection []domain.SelectedCard,
	interp domain.Interpretation,
) (*domain.Reading, error) {
	reading, err := domain.NewReading(userID, req.Mode, req.Domain, req.Question, selection, interp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.readingRepo.Create(ctx, reading); err != nil {
		s.logger.Error("failed to save reading",
			"error", err,
			"user_id", userID,
			"reading_id", reading.ID)
		return nil, NewReadingServiceError(op, "failed to save reading", err)
	}

	s.logger.Info("reading created",
		"reading_id", reading.ID,
		"user_id", userID,
		"mode", reading.Mode,
		"domain", reading.Domain)
	return reading, nil
}

// canonicalSelection checks the selection against the spread and replaces
// each card with the catalog's copy, keeping orientation and position.
func (s *readingServiceImpl) canonicalSelection(
	ctx context.Context,
	selection []domain.SelectedCard,
) ([]domain.SelectedCard, error) {
	if err := domain.ValidateSelection(selection, s.cfg.Spread); err != nil {
		return nil, err
	}
	cards, err := s.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	out := make([]domain.SelectedCard, len(selection))
	for i, sc := range selection {
		c, ok := byID[sc.ID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown card %q", domain.ErrValidation, sc.ID)
		}
		sc.Card = c
		out[i] = sc
	}
	return out, nil
}

// SaveReading implements ReadingService.
func (s *readingServiceImpl) SaveReading(ctx context.Context, userID, readingID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.readingRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.readingRepo.WithTx(tx)

		reading, err := txRepo.GetByID(ctx, readingID)
		if err != nil {
			return NewReadingServiceError("save_reading", "failed to retrieve reading", err)
		}
		if reading.UserID != userID {
			s.logger.Warn("attempt to save reading owned by another user",
				"reading_id", readingID,
				"user_id", userID)
			return ErrNotOwned
		}
		if reading.Saved {
			return nil
		}

		if err := txRepo.MarkSaved(ctx, readingID); err != nil {
			s.logger.Error("failed to mark reading saved",
				"error", err,
				"reading_id", readingID)
			return NewReadingServiceError("save_reading", "failed to mark reading saved", err)
		}
		return nil
	})
}

// GetReading implements ReadingService.
func (s *readingServiceImpl) GetReading(ctx context.Context, userID, readingID uuid.UUID) (*domain.Reading, error) {
	reading, err := s.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return nil, NewReadingServiceError("get_reading", "failed to retrieve reading", err)
	}
	if reading.UserID != userID {
		return nil, ErrNotOwned
	}
	return reading, nil
}

// ListReadings implements ReadingService.
func (s *readingServiceImpl) ListReadings(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Reading, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset cannot be negative", domain.ErrValidation)
	}
	readings, err := s.readingRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewReadingServiceError("list_readings", "failed to list readings", err)
	}
	return readings, nil
}
