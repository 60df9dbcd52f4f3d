package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would violate a uniqueness
	// constraint or a compare-and-set lost its race.
	ErrConflict = errors.New("conflict")
)

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to a WithTx callback run inside that
// transaction.
type Store interface {
	Slots() SlotRegistry
	Reservations() Ledger
	Accounts() AccountRepository

	// WithTx executes fn within a transaction. If fn returns an error or ctx
	// ends first, every write made through tx is rolled back.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &gormStore{db: db, logger: logger}
}

func (s *gormStore) Slots() SlotRegistry {
	return &slotRegistry{db: s.db}
}

func (s *gormStore) Reservations() Ledger {
	return &ledger{db: s.db}
}

func (s *gormStore) Accounts() AccountRepository {
	return &accountRepository{db: s.db}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, logger: s.logger})
	})
	if err != nil {
		s.logger.Debug("transaction rolled back", "error", err)
	}
	return err
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation recognizes duplicate-key errors from both supported
// drivers, translated or raw.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
