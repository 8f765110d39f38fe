package models

import "time"

// Hold is the ephemeral soft reservation stored in Redis. The key is exactly
// (serviceId, slot) - providerId is informational, not part of the identity.
type Hold struct {
	ServiceID  string            `json:"serviceId"`
	Slot       string            `json:"slot"` // normalized UTC start instant
	CustomerID string            `json:"customerId"`
	ProviderID string            `json:"providerId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	TTLSeconds int               `json:"ttlSeconds"`
	CreatedAt  time.Time         `json:"createdAt"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

// HoldView is the client-facing projection of a hold. It never exposes the
// owning customer's identity to other callers.
type HoldView struct {
	ServiceID        string `json:"serviceId"`
	Slot             string `json:"slot"`
	ProviderID       string `json:"providerId,omitempty"`
	RemainingSeconds int    `json:"remainingSeconds"`
	HeldByRequester  bool   `json:"heldByRequester"`
}

// View projects the hold for a given requester.
func (h *Hold) View(requesterID string, remaining time.Duration) HoldView {
	secs := int(remaining / time.Second)
	if secs < 0 {
		secs = 0
	}
	return HoldView{
		ServiceID:        h.ServiceID,
		Slot:             h.Slot,
		ProviderID:       h.ProviderID,
		RemainingSeconds: secs,
		HeldByRequester:  requesterID != "" && requesterID == h.CustomerID,
	}
}
