// Package booking implements the reservation engine: the only component
// allowed to move a slot between Available and Booked, always together with
// the matching ledger write.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/metrics"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/parse"
	"studyroom-backend/internal/store"
)

// Engine orchestrates bookings, cancellations and administrative status
// changes. Work on one slot descriptor is serialized in-process by a keyed
// lock; across processes the slot compare-and-set and the reservation
// unique index decide the winner.
type Engine struct {
	store   store.Store
	locks   *keyLock
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides the time source used for reservation timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine creates an engine over s.
func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		locks:  newKeyLock(),
		logger: slog.Default(),
		clock:  time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	return e
}

// Book reserves the slot matching d for accountID. The reservation insert and
// the Available->Booked flip commit together or not at all.
func (e *Engine) Book(ctx context.Context, accountID string, d model.Descriptor, requester model.Requester) (res model.Reservation, err error) {
	defer func() { e.metrics.Bookings.WithLabelValues(outcomeOf(err)).Inc() }()

	if accountID == "" {
		return model.Reservation{}, ErrUnauthenticated
	}
	d, err = parse.Descriptor(d)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	requester, err = validateRequester(requester)
	if err != nil {
		return model.Reservation{}, err
	}

	unlock, err := e.locks.Lock(ctx, d.Key())
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	defer unlock()

	slot, err := e.store.Slots().FindMatching(ctx, d)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Reservation{}, ErrSlotNotFound
		}
		return model.Reservation{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	if slot.Status != model.SlotAvailable {
		return model.Reservation{}, fmt.Errorf("%w: slot %d is %s", ErrSlotUnavailable, slot.ID, slot.Status)
	}

	res = model.Reservation{
		ID:          e.newID(),
		AccountID:   accountID,
		SlotID:      slot.ID,
		RoomID:      slot.RoomID,
		Campus:      slot.Campus,
		Date:        slot.Date,
		TimeRange:   slot.TimeRange,
		Description: slot.Description,
		Requester:   requester,
		Status:      model.ReservationBooked,
		CreatedAt:   e.clock().UTC(),
	}

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Reservations().Create(ctx, &res); err != nil {
			return err
		}
		return tx.Slots().Transition(ctx, slot.ID, model.SlotAvailable, model.SlotBooked)
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflict):
		return model.Reservation{}, fmt.Errorf("%w: slot %d was taken concurrently", ErrSlotUnavailable, slot.ID)
	case errors.Is(err, store.ErrNotFound):
		return model.Reservation{}, ErrSlotNotFound
	default:
		e.logger.Error("booking rolled back", "slot", slot.ID, "account", accountID, "error", err)
		return model.Reservation{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}

	e.logger.Info("slot booked", "reservation", res.ID, "slot", slot.ID, "account", accountID)
	return res, nil
}

// Cancel deletes a reservation and reverts its slot to Available. Only the
// owner or an admin may cancel. If the slot can no longer be found the
// deletion still commits and the drift is reported.
func (e *Engine) Cancel(ctx context.Context, accountID string, role model.Role, reservationID string) (err error) {
	defer func() { e.metrics.Cancellations.WithLabelValues(outcomeOf(err)).Inc() }()

	if accountID == "" {
		return ErrUnauthenticated
	}

	res, err := e.store.Reservations().Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	if res.AccountID != accountID && role != model.RoleAdmin {
		return ErrForbidden
	}

	d := res.Descriptor()
	unlock, err := e.locks.Lock(ctx, d.Key())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	defer unlock()

	var drift bool
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Reservations().Remove(ctx, reservationID); err != nil {
			return err
		}
		err := tx.Slots().SetStatus(ctx, d, model.SlotAvailable)
		if errors.Is(err, store.ErrNotFound) {
			drift = true
			return nil
		}
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		// Cancelled concurrently by someone else.
		return ErrReservationNotFound
	default:
		e.logger.Error("cancellation rolled back", "reservation", reservationID, "error", err)
		return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}

	if drift {
		e.metrics.RegistryDrift.Inc()
		e.logger.Warn("no slot found to revert after cancellation",
			"reservation", reservationID, "slot", d.Key(), "account", accountID)
	}
	e.logger.Info("reservation cancelled", "reservation", reservationID, "account", accountID, "role", role)
	return nil
}

// ListMine returns the reservations owned by accountID.
func (e *Engine) ListMine(ctx context.Context, accountID string) ([]model.Reservation, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	reservations, err := e.store.Reservations().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	return reservations, nil
}

// ListSlots returns the full catalog.
func (e *Engine) ListSlots(ctx context.Context) ([]model.Slot, error) {
	slots, err := e.store.Slots().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	return slots, nil
}

// ListRoom returns the slots of one room.
func (e *Engine) ListRoom(ctx context.Context, roomID string) ([]model.Slot, error) {
	slots, err := e.store.Slots().ListByRoom(ctx, strings.ToUpper(strings.TrimSpace(roomID)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	return slots, nil
}

// AdminSetSlotStatus overrides a slot's status outside the booking cycle.
// Only Available<->Maintenance is permitted: Booked is entered and left
// exclusively through Book and Cancel.
func (e *Engine) AdminSetSlotStatus(ctx context.Context, role model.Role, slotID int64, status model.SlotStatus) (updated model.Slot, err error) {
	defer func() { e.metrics.AdminUpdates.WithLabelValues(outcomeOf(err)).Inc() }()

	if role != model.RoleAdmin {
		return model.Slot{}, ErrForbidden
	}
	if !status.Valid() {
		return model.Slot{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	slot, err := e.store.Slots().FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Slot{}, ErrSlotNotFound
		}
		return model.Slot{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}

	unlock, err := e.locks.Lock(ctx, slot.Descriptor().Key())
	if err != nil {
		return model.Slot{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	defer unlock()

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		current, err := tx.Slots().FindByID(ctx, slotID)
		if err != nil {
			return err
		}
		if current.Status == status {
			updated = current
			return nil
		}
		if current.Status == model.SlotBooked || status == model.SlotBooked {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}
		live, err := tx.Reservations().CountBySlot(ctx, slotID)
		if err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("%w: slot %d has a live reservation", ErrInvalidTransition, slotID)
		}
		if err := tx.Slots().Transition(ctx, slotID, current.Status, status); err != nil {
			return err
		}
		updated, err = tx.Slots().FindByID(ctx, slotID)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidTransition):
		return model.Slot{}, err
	case errors.Is(err, store.ErrNotFound):
		return model.Slot{}, ErrSlotNotFound
	case errors.Is(err, store.ErrConflict):
		return model.Slot{}, fmt.Errorf("%w: slot %d changed concurrently", ErrInvalidTransition, slotID)
	default:
		e.logger.Error("slot status override rolled back", "slot", slotID, "error", err)
		return model.Slot{}, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}

	e.logger.Info("slot status overridden", "slot", slotID, "from", slot.Status, "to", updated.Status)
	return updated, nil
}

func validateRequester(r model.Requester) (model.Requester, error) {
	r = model.Requester{
		FullName:  strings.TrimSpace(r.FullName),
		StudentID: strings.TrimSpace(r.StudentID),
		Email:     strings.TrimSpace(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
	}
	switch {
	case r.FullName == "":
		return r, fmt.Errorf("%w: requester name is required", ErrValidation)
	case r.StudentID == "":
		return r, fmt.Errorf("%w: requester student id is required", ErrValidation)
	case r.Phone == "":
		return r, fmt.Errorf("%w: requester phone is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return r, fmt.Errorf("%w: requester email: %v", ErrValidation, err)
	}
	return r, nil
}
