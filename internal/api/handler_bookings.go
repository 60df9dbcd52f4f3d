package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyroom-backend/internal/model"
)

// bookingRequest is the flat body of POST /bookings: the slot descriptor
// followed by the requester's contact details.
type bookingRequest struct {
	model.Descriptor
	model.Requester
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p := principal(c)
	res, err := h.engine.Book(c.Request.Context(), p.AccountID, req.Descriptor, req.Requester)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListBookings handles GET /bookings.
func (h *Handler) ListBookings(c *gin.Context) {
	reservations, err := h.engine.ListMine(c.Request.Context(), principal(c).AccountID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// CancelBooking handles DELETE /bookings/:id.
func (h *Handler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	p := principal(c)
	if err := h.engine.Cancel(c.Request.Context(), p.AccountID, p.Role, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "reservation cancelled"})
}
