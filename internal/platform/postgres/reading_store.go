package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// PostgresReadingStore implements store.ReadingStore. Selections and
// interpretations are stored as JSONB.
type PostgresReadingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReadingStore creates a reading store over db, which may be a
// *sql.DB or a *sql.Tx. If logger is nil, a default logger will be used.
func NewPostgresReadingStore(db store.DBTX, logger *slog.Logger) *PostgresReadingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReadingStore{
		db:     db,
		logger: logger.With(slog.String("component", "reading_store")),
	}
}

var _ store.ReadingStore = (*PostgresReadingStore)(nil)

const readingColumns = `id, user_id, mode, domain, question, selection, interpretation, saved, created_at, updated_at`

// Create implements store.ReadingStore.Create.
func (s *PostgresReadingStore) Create(ctx context.Context, reading *domain.Reading) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reading.Validate(); err != nil {
		log.Warn("reading validation failed during create",
			slog.String("error", err.Error()),
			slog.String("reading_id", reading.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	selection, err := json.Marshal(reading.Selection)
	if err != nil {
		return store.NewStoreError(store.EntityReading, "create", "failed to encode selection", err)
	}
	interp, err := json.Marshal(reading.Interpretation)
	if err != nil {
		return store.NewStoreError(store.EntityReading, "create", "failed to encode interpretation", err)
	}

	query := `
		INSERT INTO readings (` + readingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		reading.ID,
		reading.UserID,
		reading.Mode,
		reading.Domain,
		reading.Question,
		selection,
		interp,
		reading.Saved,
		reading.CreatedAt,
		reading.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create reading",
			slog.String("error", err.Error()),
			slog.String("reading_id", reading.ID.String()))
		return store.NewStoreError(store.EntityReading, "create", "insert failed", MapError(err))
	}

	log.Info("reading created",
		slog.String("reading_id", reading.ID.String()),
		slog.String("mode", string(reading.Mode)),
		slog.String("domain", string(reading.Domain)))
	return nil
}

// GetByID implements store.ReadingStore.GetByID.
func (s *PostgresReadingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + readingColumns + ` FROM readings WHERE id = $1`
	reading, err := scanReading(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reading not found", slog.String("reading_id", id.String()))
			return nil, store.ErrReadingNotFound
		}
		log.Error("failed to get reading",
			slog.String("error", err.Error()),
			slog.String("reading_id", id.String()))
		return nil, store.NewStoreError(store.EntityReading, "get", "query failed", MapError(err))
	}
	return reading, nil
}

// MarkSaved implements store.ReadingStore.MarkSaved.
func (s *PostgresReadingStore) MarkSaved(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE readings SET saved = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to mark reading saved",
			slog.String("error", err.Error()),
			slog.String("reading_id", id.String()))
		return store.NewStoreError(store.EntityReading, "update", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrReadingNotFound); err != nil {
		return err
	}

	log.Debug("reading saved", slog.String("reading_id", id.String()))
	return nil
}

// ListByUser implements store.ReadingStore.ListByUser.
func (s *PostgresReadingStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limitOrDefault(limit), offset)
	if err != nil {
		log.Error("failed to list readings",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError(store.EntityReading, "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	readings := []*domain.Reading{}
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, store.NewStoreError(store.EntityReading, "list", "scan failed", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityReading, "list", "iteration failed", err)
	}
	return readings, nil
}

// WithTx implements store.ReadingStore.WithTx.
func (s *PostgresReadingStore) WithTx(tx *sql.Tx) store.ReadingStore {
	return &PostgresReadingStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*domain.Reading, error) {
	var (
		r         domain.Reading
		mode      string
		d         string
		selection []byte
		interp    []byte
	)
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&mode,
		&d,
		&r.Question,
		&selection,
		&interp,
		&r.Saved,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Mode = domain.Mode(mode)
	r.Domain = domain.Domain(d)
	if err := json.Unmarshal(selection, &r.Selection); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	if err := json.Unmarshal(interp, &r.Interpretation); err != nil {
		return nil, fmt.Errorf("decode interpretation: %w", err)
	}
	return &r, nil
}

// limitOrDefault caps listing sizes.
func limitOrDefault(limit int) int {
	const defaultLimit, maxLimit = 50, 200
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
