package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studyroom-backend/internal/model"
)

// Ledger is the log of live reservations.
type Ledger interface {
	// Create persists r. It returns ErrConflict if the slot already has a
	// live reservation.
	Create(ctx context.Context, r *model.Reservation) error
	Get(ctx context.Context, id string) (model.Reservation, error)
	// ListByAccount returns the reservations owned by accountID, oldest
	// first, with a minimal owner snapshot attached.
	ListByAccount(ctx context.Context, accountID string) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	CountBySlot(ctx context.Context, slotID int64) (int64, error)
	Remove(ctx context.Context, id string) error
}

type ledger struct {
	db *gorm.DB
}

func (l *ledger) Create(ctx context.Context, r *model.Reservation) error {
	if err := l.db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create reservation for slot %d: %w", r.SlotID, err)
	}
	return nil
}

func (l *ledger) Get(ctx context.Context, id string) (model.Reservation, error) {
	var r model.Reservation
	if err := l.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return model.Reservation{}, notFound(err)
	}
	return r, nil
}

func (l *ledger) ListByAccount(ctx context.Context, accountID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := l.db.WithContext(ctx).
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "full_name", "student_id", "email")
		}).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations for account %s: %w", accountID, err)
	}
	return reservations, nil
}

func (l *ledger) ListAll(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := l.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (l *ledger) CountBySlot(ctx context.Context, slotID int64) (int64, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&model.Reservation{}).Where("slot_id = ?", slotID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count reservations for slot %d: %w", slotID, err)
	}
	return count, nil
}

func (l *ledger) Remove(ctx context.Context, id string) error {
	res := l.db.WithContext(ctx).Delete(&model.Reservation{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("remove reservation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
