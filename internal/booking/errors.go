package booking

import (
	"errors"

	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/metrics"
)

var (
	ErrUnauthenticated = auth.ErrUnauthenticated
	ErrInvalidToken    = auth.ErrInvalidToken
	// ErrForbidden is returned when the caller lacks the role or ownership
	// an operation requires.
	ErrForbidden           = errors.New("forbidden")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrSlotUnavailable is the expected outcome of booking a slot that is
	// already booked or under maintenance, including losing a booking race.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrTransactionFailure wraps storage failures. The unit of work has
	// been rolled back when it is returned.
	ErrTransactionFailure = errors.New("transaction failure")
	ErrValidation         = errors.New("validation error")
	// ErrInvalidTransition is returned for administrative status changes
	// that would orphan or fabricate a booking.
	ErrInvalidTransition = errors.New("invalid slot status transition")
)

// IsClientError reports whether err is an expected business outcome rather
// than a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSlotNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrInvalidTransition):
		return metrics.OutcomeUnavailable
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrReservationNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUnauthenticated):
		return metrics.OutcomeForbidden
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
