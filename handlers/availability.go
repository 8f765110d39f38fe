package handlers

import (
	"net/http"
	"strconv"

	"slotbook/services/booking"

	"github.com/gin-gonic/gin"
)

// GetAvailability returns the slot grid for a service over a horizon.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	serviceID := c.Query("serviceId")
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serviceId is required"})
		return
	}
	providerID := c.Query("providerId")

	rangeDays := 0
	if raw := c.Query("rangeDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": booking.ErrInvalidRange.Error()})
			return
		}
		rangeDays = parsed
	}

	grid, err := h.Availability.GetAvailability(c.Request.Context(), serviceID, providerID, rangeDays)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// GetSingleSlot probes one (serviceId, slot) pair and explains availability.
func (h *BookingHandler) GetSingleSlot(c *gin.Context) {
	serviceID := c.Query("serviceId")
	slot := c.Query("slot")
	if serviceID == "" || slot == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serviceId and slot are required"})
		return
	}
	// Optional: lets the response distinguish "your hold" from "someone else's".
	requesterID := c.Query("customerId")

	check, err := h.Coordinator.CheckSlot(c.Request.Context(), serviceID, slot, requesterID, c.Query("providerId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}
