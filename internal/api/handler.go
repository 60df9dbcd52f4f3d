package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyroom-backend/internal/account"
	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/booking"
	"studyroom-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine   *booking.Engine
	accounts *account.Service
	store    store.Store
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(engine *booking.Engine, accounts *account.Service, s store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		accounts: accounts,
		store:    s,
		logger:   logger,
	}
}

// principal returns the caller resolved by mw.Authenticate.
func principal(c *gin.Context) auth.Principal {
	p, _ := auth.PrincipalFrom(c.Request.Context())
	return p
}

// respondError maps domain errors onto HTTP statuses. Server faults are
// logged with their cause and reported to the client generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, booking.ErrValidation), errors.Is(err, account.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, booking.ErrUnauthenticated), errors.Is(err, booking.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, account.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, booking.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, booking.ErrSlotNotFound), errors.Is(err, booking.ErrReservationNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, booking.ErrSlotUnavailable), errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, account.ErrAccountExists):
		status, msg = http.StatusConflict, err.Error()
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
