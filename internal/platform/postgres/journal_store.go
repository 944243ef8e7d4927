package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// PostgresJournalStore implements store.JournalStore.
type PostgresJournalStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJournalStore creates a journal store over db.
func NewPostgresJournalStore(db store.DBTX, logger *slog.Logger) *PostgresJournalStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJournalStore{
		db:     db,
		logger: logger.With(slog.String("component", "journal_store")),
	}
}

var _ store.JournalStore = (*PostgresJournalStore)(nil)

const journalColumns = `id, user_id, reading_id, title, body, mood, created_at, updated_at`

// Create implements store.JournalStore.Create.
// Returns store.ErrInvalidEntity if the referenced reading does not exist.
func (s *PostgresJournalStore) Create(ctx context.Context, entry *domain.JournalEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("journal validation failed during create",
			slog.String("error", err.Error()),
			slog.String("journal_id", entry.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO journal_entries (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		nullableUUID(entry.ReadingID),
		entry.Title,
		entry.Body,
		entry.Mood,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("journal references unknown reading",
				slog.String("journal_id", entry.ID.String()))
			return fmt.Errorf("%w: reading %s not found", store.ErrInvalidEntity, entry.ReadingID)
		}
		log.Error("failed to create journal entry",
			slog.String("error", err.Error()),
			slog.String("journal_id", entry.ID.String()))
		return store.NewStoreError(store.EntityJournal, "create", "insert failed", MapError(err))
	}

	log.Info("journal entry created",
		slog.String("journal_id", entry.ID.String()),
		slog.String("user_id", entry.UserID.String()))
	return nil
}

// GetByID implements store.JournalStore.GetByID.
func (s *PostgresJournalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE id = $1`
	entry, err := scanJournal(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("journal entry not found", slog.String("journal_id", id.String()))
			return nil, store.ErrJournalNotFound
		}
		log.Error("failed to get journal entry",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()))
		return nil, store.NewStoreError(store.EntityJournal, "get", "query failed", MapError(err))
	}
	return entry, nil
}

// List implements store.JournalStore.List.
func (s *PostgresJournalStore) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if filter.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyJournalUserID)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + journalColumns + ` FROM journal_entries WHERE user_id = $1`)
	args := []any{filter.UserID}
	if filter.ReadingID != nil {
		args = append(args, *filter.ReadingID)
		fmt.Fprintf(&b, ` AND reading_id = $%d`, len(args))
	}
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)
	fmt.Fprintf(&b, ` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		log.Error("failed to list journal entries",
			slog.String("error", err.Error()),
			slog.String("user_id", filter.UserID.String()))
		return nil, store.NewStoreError(store.EntityJournal, "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.JournalEntry{}
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, store.NewStoreError(store.EntityJournal, "list", "scan failed", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityJournal, "list", "iteration failed", err)
	}
	return entries, nil
}

// Update implements store.JournalStore.Update.
func (s *PostgresJournalStore) Update(ctx context.Context, entry *domain.JournalEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE journal_entries
		SET reading_id = $1, title = $2, body = $3, mood = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		nullableUUID(entry.ReadingID),
		entry.Title,
		entry.Body,
		entry.Mood,
		entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: reading %s not found", store.ErrInvalidEntity, entry.ReadingID)
		}
		log.Error("failed to update journal entry",
			slog.String("error", err.Error()),
			slog.String("journal_id", entry.ID.String()))
		return store.NewStoreError(store.EntityJournal, "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrJournalNotFound)
}

// Delete implements store.JournalStore.Delete.
func (s *PostgresJournalStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete journal entry",
			slog.String("error", err.Error()),
			slog.String("journal_id", id.String()))
		return store.NewStoreError(store.EntityJournal, "delete", "delete failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrJournalNotFound); err != nil {
		return err
	}
	log.Info("journal entry deleted", slog.String("journal_id", id.String()))
	return nil
}

// WithTx implements store.JournalStore.WithTx.
func (s *PostgresJournalStore) WithTx(tx *sql.Tx) store.JournalStore {
	return &PostgresJournalStore{db: tx, logger: s.logger}
}

func scanJournal(row rowScanner) (*domain.JournalEntry, error) {
	var (
		e         domain.JournalEntry
		readingID uuid.NullUUID
	)
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&readingID,
		&e.Title,
		&e.Body,
		&e.Mood,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if readingID.Valid {
		id := readingID.UUID
		e.ReadingID = &id
	}
	return &e, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
