package models

// Service represents a bookable service offering. Services are owned by the
// business catalogue and are read-only to the booking core.
type Service struct {
	ID              string   `bson:"id" json:"id"`
	Name            string   `bson:"name" json:"name"`
	Active          bool     `bson:"active" json:"active"`
	LeadTimeHours   int      `bson:"lead_time_hours" json:"leadTimeHours"`       // minimum advance notice
	DurationMinutes int      `bson:"duration_minutes" json:"durationMinutes"`    // length of one slot
	BufferMinutes   int      `bson:"buffer_minutes" json:"bufferMinutes"`        // gap between consecutive slots
	ProviderIDs     []string `bson:"provider_ids" json:"providerIds,omitempty"`  // providers offering this service
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
}

// OffersProvider reports whether the given provider is associated with the service.
func (s *Service) OffersProvider(providerID string) bool {
	for _, id := range s.ProviderIDs {
		if id == providerID {
			return true
		}
	}
	return false
}
