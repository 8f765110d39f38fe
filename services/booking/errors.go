package booking

import (
	"errors"
	"fmt"
	"strings"

	"slotbook/models"
)

// Reason codes are stable, client-facing and case-sensitive.
const (
	ReasonServiceNotFound        = "SERVICE_NOT_FOUND"
	ReasonServiceInactive        = "SERVICE_INACTIVE"
	ReasonPastSlot               = "PAST_SLOT"
	ReasonLeadTimeNotMet         = "LEAD_TIME_NOT_MET"
	ReasonProviderNotAvailable   = "PROVIDER_NOT_AVAILABLE_FOR_SERVICE"
	ReasonAlreadyBooked          = "ALREADY_BOOKED"
	ReasonAlreadyOnHold          = "ALREADY_ON_HOLD"
	ReasonOnHold                 = "ON_HOLD"
	ReasonHoldWrongCustomer      = "HOLD_RESERVED_FOR_DIFFERENT_CUSTOMER"
)

var (
	// ErrInvalidTimeFormat indicates an instant that cannot be parsed.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrInvalidRange indicates a non-positive or oversized horizon request.
	ErrInvalidRange = errors.New("rangeDays must be a positive integer within the allowed maximum")
	// ErrInvalidTTL indicates a hold TTL outside the allowed bounds.
	ErrInvalidTTL = errors.New("ttlSeconds must be a positive integer no greater than the maximum")
	// ErrServiceNotFound indicates the referenced service does not exist.
	ErrServiceNotFound = errors.New("service not found")
	// ErrHoldNotFound indicates no live hold exists for the slot.
	ErrHoldNotFound = errors.New("no hold exists for this slot")
	// ErrNotHoldOwner indicates the hold belongs to a different customer.
	ErrNotHoldOwner = errors.New("hold is reserved for a different customer")
)

// HoldConflictError is returned when a hold create loses to a live hold.
// It carries the surviving hold's remaining TTL and opaque metadata, never
// the other owner's identity.
type HoldConflictError struct {
	RemainingSeconds int
	ProviderID       string
	HeldBySelf       bool
}

func (e *HoldConflictError) Error() string {
	return fmt.Sprintf("slot already on hold (%ds remaining)", e.RemainingSeconds)
}

// RejectionError carries the full set of reason codes a booking intent
// failed validation with. Callers accumulate reasons, they do not
// short-circuit at the first.
type RejectionError struct {
	Reasons []string
	// Hold is set when a live hold contributed to the rejection.
	Hold *models.HoldView
}

func (e *RejectionError) Error() string {
	return "booking rejected: " + strings.Join(e.Reasons, ", ")
}

// Has reports whether the rejection includes a specific reason code.
func (e *RejectionError) Has(reason string) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
