package booking

import (
	"context"
	"fmt"

	"studyroom-backend/internal/model"
)

// AnomalyKind classifies a disagreement between the registry and the ledger.
type AnomalyKind string

const (
	// AnomalyBookedWithoutReservation is a Booked slot nobody holds.
	AnomalyBookedWithoutReservation AnomalyKind = "booked_without_reservation"
	// AnomalyReservationOnFreeSlot is a live reservation whose slot is not Booked.
	AnomalyReservationOnFreeSlot AnomalyKind = "reservation_on_unbooked_slot"
	// AnomalyOrphanReservation is a reservation whose slot no longer exists.
	AnomalyOrphanReservation AnomalyKind = "orphan_reservation"
)

// Anomaly is one consistency violation found by Audit.
type Anomaly struct {
	Kind          AnomalyKind      `json:"kind"`
	SlotID        int64            `json:"slotId,omitempty"`
	ReservationID string           `json:"reservationId,omitempty"`
	Status        model.SlotStatus `json:"status,omitempty"`
	Detail        string           `json:"detail"`
}

// Audit compares the registry with the ledger and returns every slot or
// reservation that breaks the Booked-iff-reserved rule. An empty result means
// the two agree. Admin only.
func (e *Engine) Audit(ctx context.Context, role model.Role) ([]Anomaly, error) {
	if role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	slots, err := e.store.Slots().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	reservations, err := e.store.Reservations().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}

	held := make(map[int64][]model.Reservation, len(reservations))
	for _, r := range reservations {
		held[r.SlotID] = append(held[r.SlotID], r)
	}

	anomalies := []Anomaly{}
	known := make(map[int64]struct{}, len(slots))
	for _, s := range slots {
		known[s.ID] = struct{}{}
		rs := held[s.ID]
		switch {
		case s.Status == model.SlotBooked && len(rs) == 0:
			anomalies = append(anomalies, Anomaly{
				Kind:   AnomalyBookedWithoutReservation,
				SlotID: s.ID,
				Status: s.Status,
				Detail: fmt.Sprintf("slot %s is booked but has no reservation", s.Descriptor().Key()),
			})
		case s.Status != model.SlotBooked:
			for _, r := range rs {
				anomalies = append(anomalies, Anomaly{
					Kind:          AnomalyReservationOnFreeSlot,
					SlotID:        s.ID,
					ReservationID: r.ID,
					Status:        s.Status,
					Detail:        fmt.Sprintf("reservation %s holds slot %s which is %s", r.ID, s.Descriptor().Key(), s.Status),
				})
			}
		}
	}
	for _, r := range reservations {
		if _, ok := known[r.SlotID]; ok {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Kind:          AnomalyOrphanReservation,
			SlotID:        r.SlotID,
			ReservationID: r.ID,
			Detail:        fmt.Sprintf("reservation %s references missing slot %s", r.ID, r.Descriptor().Key()),
		})
	}

	if len(anomalies) > 0 {
		e.logger.Warn("registry and ledger disagree", "anomalies", len(anomalies))
	}
	return anomalies, nil
}
