package booking

import (
	"context"

	"slotbook/models"
)

// BookingCoordinator orchestrates the hold -> appointment promotion and
// explains every rejection with precise reason codes.
type BookingCoordinator interface {
	// CheckSlot probes a single (serviceId, slot) pair, returning all
	// applicable reason codes and the current hold state.
	CheckSlot(ctx context.Context, serviceID, slot, requesterID string, providerID string) (*models.SlotCheck, error)
	// PlaceHold validates the intent and atomically places a hold.
	PlaceHold(ctx context.Context, slot string, req HoldRequest) (*models.Hold, error)
	// ExtendHold pushes the caller's own hold expiry further out.
	ExtendHold(ctx context.Context, serviceID, slot, customerID string, additionalSeconds int) error
	// ReleaseHold releases the caller's own hold; idempotent when absent.
	ReleaseHold(ctx context.Context, serviceID, slot, customerID string) error
	// Confirm promotes a held slot into a durable appointment, re-checking
	// the durable store for conflicts at commit time.
	Confirm(ctx context.Context, req ConfirmRequest) (*models.Appointment, error)
}

// ExpiryScheduler records a hold's expiry instant for the observability
// sweep. Scheduling failures never fail the booking path.
type ExpiryScheduler interface {
	ScheduleExpiryCheck(ctx context.Context, hold *models.Hold) error
}
