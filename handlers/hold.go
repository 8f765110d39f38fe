package handlers

import (
	"net/http"

	"slotbook/services/booking"

	"github.com/gin-gonic/gin"
)

// CreateHold places a soft reservation on a (serviceId, slot) pair.
func (h *BookingHandler) CreateHold(c *gin.Context) {
	var input struct {
		ServiceID  string            `json:"serviceId" binding:"required"`
		Slot       string            `json:"slot" binding:"required"`
		TTLSeconds int               `json:"ttlSeconds"`
		CustomerID string            `json:"customerId"`
		ProviderID string            `json:"providerId"`
		Metadata   map[string]string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.TTLSeconds < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": booking.ErrInvalidTTL.Error()})
		return
	}

	hold, err := h.Coordinator.PlaceHold(c.Request.Context(), input.Slot, booking.HoldRequest{
		ServiceID:  input.ServiceID,
		TTLSeconds: input.TTLSeconds,
		CustomerID: input.CustomerID,
		ProviderID: input.ProviderID,
		Metadata:   input.Metadata,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"hold": hold})
}

// ExtendHold pushes the caller's own hold expiry further out.
func (h *BookingHandler) ExtendHold(c *gin.Context) {
	var input struct {
		ServiceID         string `json:"serviceId" binding:"required"`
		Slot              string `json:"slot" binding:"required"`
		CustomerID        string `json:"customerId" binding:"required"`
		AdditionalSeconds int    `json:"additionalSeconds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Coordinator.ExtendHold(c.Request.Context(), input.ServiceID, input.Slot, input.CustomerID, input.AdditionalSeconds); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extended": true})
}

// ReleaseHold releases the caller's own hold. Releasing an absent hold
// succeeds so clients can retry safely.
func (h *BookingHandler) ReleaseHold(c *gin.Context) {
	var input struct {
		ServiceID  string `json:"serviceId" binding:"required"`
		Slot       string `json:"slot" binding:"required"`
		CustomerID string `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Coordinator.ReleaseHold(c.Request.Context(), input.ServiceID, input.Slot, input.CustomerID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}
