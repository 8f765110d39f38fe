package appointmentRepo

import (
	"context"
	"errors"
	"time"

	"slotbook/models"
)

// ErrSlotTaken is returned by CreateConfirmed when a confirmed appointment
// already exists for the same (service_id, slot_key).
var ErrSlotTaken = errors.New("slot already has a confirmed appointment")

// AppointmentRepository defines the durable-store operations the booking core
// needs. Confirmed appointments are the source of truth for slot ownership.
type AppointmentRepository interface {
	// GetConfirmed returns the confirmed appointment for a slot key, or
	// (nil, nil) when none exists.
	GetConfirmed(ctx context.Context, serviceID, slotKey string) (*models.Appointment, error)
	// FindConfirmedInRange returns confirmed appointments for a service whose
	// start falls within [from, to).
	FindConfirmedInRange(ctx context.Context, serviceID string, from, to time.Time) ([]models.Appointment, error)
	// CreateConfirmed inserts the appointment, rejecting with ErrSlotTaken if
	// a confirmed appointment already holds the slot. The conflict check and
	// the insert happen in one transaction; the partial unique index on
	// (service_id, slot_key) backstops paths that bypass the transaction.
	CreateConfirmed(ctx context.Context, appt *models.Appointment) error
}
