package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyroom-backend/internal/model"
)

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	slots, err := h.engine.ListSlots(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetRoom handles GET /rooms/:roomId.
func (h *Handler) GetRoom(c *gin.Context) {
	slots, err := h.engine.ListRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

type slotStatusRequest struct {
	Status model.SlotStatus `json:"status" binding:"required"`
}

// UpdateSlotStatus handles PUT /rooms/slot/:slotId.
func (h *Handler) UpdateSlotStatus(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("slotId"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid slot ID")
		return
	}
	var req slotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	p := principal(c)
	slot, err := h.engine.AdminSetSlotStatus(c.Request.Context(), p.Role, slotID, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}
