package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studyroom-backend/internal/model"
)

// SlotRegistry is the catalog of bookable slots and their status.
type SlotRegistry interface {
	// ListAll returns every slot in insertion order.
	ListAll(ctx context.Context) ([]model.Slot, error)
	// ListByRoom returns the slots of one room, or ErrNotFound if it has none.
	ListByRoom(ctx context.Context, roomID string) ([]model.Slot, error)
	FindMatching(ctx context.Context, d model.Descriptor) (model.Slot, error)
	FindByID(ctx context.Context, id int64) (model.Slot, error)
	// SetStatus overwrites the status of the slot matching d.
	SetStatus(ctx context.Context, d model.Descriptor, status model.SlotStatus) error
	// Transition moves slot id from one status to another. It returns
	// ErrConflict if the slot is no longer in status from.
	Transition(ctx context.Context, id int64, from, to model.SlotStatus) error
	// Upsert inserts slots whose descriptor is not yet known and reports how
	// many were added. Existing slots keep their status.
	Upsert(ctx context.Context, slots []model.Slot) (int64, error)
}

type slotRegistry struct {
	db *gorm.DB
}

func whereDescriptor(db *gorm.DB, d model.Descriptor) *gorm.DB {
	return db.Where(
		"room_id = ? AND campus = ? AND date = ? AND time_range = ? AND description = ?",
		d.RoomID, d.Campus, d.Date, d.TimeRange, d.Description,
	)
}

func (r *slotRegistry) ListAll(ctx context.Context) ([]model.Slot, error) {
	var slots []model.Slot
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRegistry) ListByRoom(ctx context.Context, roomID string) ([]model.Slot, error) {
	var slots []model.Slot
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("id ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list slots for room %s: %w", roomID, err)
	}
	if len(slots) == 0 {
		return nil, ErrNotFound
	}
	return slots, nil
}

func (r *slotRegistry) FindMatching(ctx context.Context, d model.Descriptor) (model.Slot, error) {
	var slot model.Slot
	if err := whereDescriptor(r.db.WithContext(ctx), d).First(&slot).Error; err != nil {
		return model.Slot{}, notFound(err)
	}
	return slot, nil
}

func (r *slotRegistry) FindByID(ctx context.Context, id int64) (model.Slot, error) {
	var slot model.Slot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return model.Slot{}, notFound(err)
	}
	return slot, nil
}

func (r *slotRegistry) SetStatus(ctx context.Context, d model.Descriptor, status model.SlotStatus) error {
	res := whereDescriptor(r.db.WithContext(ctx).Model(&model.Slot{}), d).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("set status of slot %s: %w", d.Key(), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *slotRegistry) Transition(ctx context.Context, id int64, from, to model.SlotStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Slot{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("transition slot %d %s->%s: %w", id, from, to, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Slot{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("transition slot %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *slotRegistry) Upsert(ctx context.Context, slots []model.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	for i := range slots {
		if slots[i].Status == "" {
			slots[i].Status = model.SlotAvailable
		}
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "room_id"}, {Name: "campus"}, {Name: "date"}, {Name: "time_range"}, {Name: "description"},
		},
		DoNothing: true,
	}).Create(&slots)
	if res.Error != nil {
		return 0, fmt.Errorf("batch upsert slots failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
