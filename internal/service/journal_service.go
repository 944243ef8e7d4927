package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/store"
)

// JournalService provides owner-checked journal entry operations.
type JournalService interface {
	Fetch(ctx context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error)

	// List returns entries matching filter. filter.UserID is required.
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)

	// Create adds an entry for userID. An attached reading must belong to
	// the same user.
	Create(ctx context.Context, userID uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error)

	Update(ctx context.Context, userID, id uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type journalServiceImpl struct {
	journalRepo JournalRepository
	readingRepo ReadingRepository
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewJournalService creates a new JournalService.
// It returns an error if any of the required dependencies are nil.
func NewJournalService(
	journalRepo JournalRepository,
	readingRepo ReadingRepository,
	logger *slog.Logger,
) (JournalService, error) {
	if journalRepo == nil {
		return nil, &JournalServiceError{Operation: "create_service", Message: "journalRepo cannot be nil"}
	}
	if readingRepo == nil {
		return nil, &JournalServiceError{Operation: "create_service", Message: "readingRepo cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &journalServiceImpl{
		journalRepo: journalRepo,
		readingRepo: readingRepo,
		validate:    validator.New(),
		logger:      logger.With("component", "journal_service"),
	}, nil
}

func (s *journalServiceImpl) validateInput(in domain.JournalInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// checkReading verifies that an attached reading exists and belongs to
// userID. Another user's reading is reported as missing.
func (s *journalServiceImpl) checkReading(
	ctx context.Context,
	readings ReadingRepository,
	userID uuid.UUID,
	readingID *uuid.UUID,
) error {
	if readingID == nil {
		return nil
	}
	reading, err := readings.GetByID(ctx, *readingID)
	if err != nil && !store.IsNotFoundError(err) {
		return NewJournalServiceError("check_reading", "failed to retrieve attached reading", err)
	}
	if err != nil || reading.UserID != userID {
		return fmt.Errorf("%w: reading %s does not exist", domain.ErrValidation, *readingID)
	}
	return nil
}

// Fetch implements JournalService.
func (s *journalServiceImpl) Fetch(ctx context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, NewJournalServiceError("fetch_journal", "failed to retrieve journal entry", err)
	}
	if entry.UserID != userID {
		return nil, ErrNotOwned
	}
	return entry, nil
}

// List implements JournalService.
func (s *journalServiceImpl) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	if filter.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyJournalUserID)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset cannot be negative", domain.ErrValidation)
	}
	entries, err := s.journalRepo.List(ctx, filter)
	if err != nil {
		return nil, NewJournalServiceError("list_journals", "failed to list journal entries", err)
	}
	return entries, nil
}

// Create implements JournalService.
func (s *journalServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	entry, err := domain.NewJournalEntry(userID, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = store.RunInTransaction(ctx, s.journalRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkReading(ctx, s.readingRepo.WithTx(tx), userID, entry.ReadingID); err != nil {
			return err
		}
		if err := s.journalRepo.WithTx(tx).Create(ctx, entry); err != nil {
			s.logger.Error("failed to create journal entry",
				"error", err,
				"user_id", userID,
				"journal_id", entry.ID)
			return NewJournalServiceError("create_journal", "failed to save journal entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("journal entry created", "journal_id", entry.ID, "user_id", userID)
	return entry, nil
}

// Update implements JournalService.
func (s *journalServiceImpl) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var updated *domain.JournalEntry
	err := store.RunInTransaction(ctx, s.journalRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.journalRepo.WithTx(tx)

		entry, err := txRepo.GetByID(ctx, id)
		if err != nil {
			return NewJournalServiceError("update_journal", "failed to retrieve journal entry", err)
		}
		if entry.UserID != userID {
			s.logger.Warn("attempt to update journal entry owned by another user",
				"journal_id", id,
				"user_id", userID)
			return ErrNotOwned
		}
		if err := s.checkReading(ctx, s.readingRepo.WithTx(tx), userID, in.ReadingID); err != nil {
			return err
		}
		if err := entry.Update(in); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		if err := txRepo.Update(ctx, entry); err != nil {
			s.logger.Error("failed to update journal entry",
				"error", err,
				"journal_id", id)
			return NewJournalServiceError("update_journal", "failed to save journal entry", err)
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements JournalService.
func (s *journalServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return store.RunInTransaction(ctx, s.journalRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.journalRepo.WithTx(tx)

		entry, err := txRepo.GetByID(ctx, id)
		if err != nil {
			return NewJournalServiceError("delete_journal", "failed to retrieve journal entry", err)
		}
		if entry.UserID != userID {
			s.logger.Warn("attempt to delete journal entry owned by another user",
				"journal_id", id,
				"user_id", userID)
			return ErrNotOwned
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			s.logger.Error("failed to delete journal entry",
				"error", err,
				"journal_id", id)
			return NewJournalServiceError("delete_journal", "failed to delete journal entry", err)
		}
		return nil
	})
}
