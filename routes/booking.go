package routes

import (
	"slotbook/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking core.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	api := r.Group("/api")
	{
		api.GET("/availability", h.GetAvailability)
		api.GET("/availability/single", h.GetSingleSlot)

		api.POST("/hold", h.CreateHold)
		api.POST("/hold/extend", h.ExtendHold)
		api.DELETE("/hold", h.ReleaseHold)

		api.POST("/booking/confirm", h.ConfirmBooking)
	}
}
