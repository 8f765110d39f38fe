package models

// SlotView is one bookable opening in an availability response.
type SlotView struct {
	ID           string `json:"id"` // serviceId|utcStart, the hold/booking key
	Start        string `json:"start"`
	End          string `json:"end"`
	ProviderID   string `json:"providerId"`
	ProviderName string `json:"providerName,omitempty"`
}

// DayAvailability carries the openings of a single calendar day. Days with no
// openings are retained so clients can render "no openings" unambiguously.
type DayAvailability struct {
	Date  string     `json:"date"` // "YYYY-MM-DD" (UTC)
	Slots []SlotView `json:"slots"`
}

// AvailabilityRange describes the requested horizon.
type AvailabilityRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityFilters echoes the filters the grid was computed with.
type AvailabilityFilters struct {
	ServiceID  string `json:"serviceId"`
	ProviderID string `json:"providerId,omitempty"`
	RangeDays  int    `json:"rangeDays"`
}

// AvailabilityGrid is the full availability response for a service.
type AvailabilityGrid struct {
	Range   AvailabilityRange   `json:"range"`
	Filters AvailabilityFilters `json:"filters"`
	Days    []DayAvailability   `json:"days"`
	// Flags carries policy signals such as SERVICE_INACTIVE when the grid is
	// intentionally empty.
	Flags []string `json:"flags,omitempty"`
}

// SlotCheck is the response for a single-slot availability probe.
type SlotCheck struct {
	ServiceID string    `json:"serviceId"`
	Slot      string    `json:"slot"`
	Available bool      `json:"available"`
	Reasons   []string  `json:"reasons"`
	Hold      *HoldView `json:"hold"`
}
