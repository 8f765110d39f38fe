package handlers

import (
	"errors"
	"net/http"

	"slotbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the availability / hold / confirm endpoint family.
type BookingHandler struct {
	Coordinator  booking.BookingCoordinator
	Availability booking.AvailabilityEngine
	Logger       *zap.Logger
}

func NewBookingHandler(coordinator booking.BookingCoordinator, availability booking.AvailabilityEngine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		Coordinator:  coordinator,
		Availability: availability,
		Logger:       logger,
	}
}

// respondError maps core errors onto the HTTP surface. Clients always get a
// reason list, never a bare boolean.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	var rejection *booking.RejectionError
	var conflict *booking.HoldConflictError

	switch {
	case errors.As(err, &rejection):
		body := gin.H{"reasons": rejection.Reasons}
		if rejection.Hold != nil {
			body["hold"] = rejection.Hold
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &conflict):
		reason := booking.ReasonAlreadyOnHold
		if conflict.HeldBySelf {
			reason = booking.ReasonOnHold
		}
		c.JSON(http.StatusConflict, gin.H{
			"reasons": []string{reason},
			"hold": gin.H{
				"remainingSeconds": conflict.RemainingSeconds,
				"providerId":       conflict.ProviderID,
			},
		})
	case errors.Is(err, booking.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"reasons": []string{booking.ReasonServiceNotFound}})
	case errors.Is(err, booking.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no hold exists for this slot"})
	case errors.Is(err, booking.ErrNotHoldOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"reasons":  []string{booking.ReasonHoldWrongCustomer},
			"released": false,
		})
	case errors.Is(err, booking.ErrInvalidTimeFormat),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrInvalidTTL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("booking request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error, safe to retry"})
	}
}

// ConfirmBooking finalizes a held slot into a durable appointment.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var input struct {
		ServiceID  string `json:"serviceId" binding:"required"`
		Slot       string `json:"slot" binding:"required"`
		CustomerID string `json:"customerId" binding:"required"`
		ProviderID string `json:"providerId"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Coordinator.Confirm(c.Request.Context(), booking.ConfirmRequest{
		ServiceID:  input.ServiceID,
		Slot:       input.Slot,
		CustomerID: input.CustomerID,
		ProviderID: input.ProviderID,
		Notes:      input.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}
