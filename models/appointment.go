package models

import "time"

// Appointment statuses. Only confirmed appointments block a slot.
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment is the durable booking record and the system's source of truth
// for slot ownership. At most one confirmed appointment may exist per
// (service_id, slot_key).
type Appointment struct {
	ID         string    `bson:"id" json:"id"`
	ServiceID  string    `bson:"service_id" json:"serviceId"`
	SlotKey    string    `bson:"slot_key" json:"slotKey"` // normalized UTC start instant
	Start      time.Time `bson:"start" json:"start"`
	End        time.Time `bson:"end" json:"end"`
	TimeZone   string    `bson:"time_zone" json:"timeZone"`
	ClientID   string    `bson:"client_id" json:"clientId"`
	ProviderID string    `bson:"provider_id,omitempty" json:"providerId,omitempty"`
	Status     string    `bson:"status" json:"status"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
