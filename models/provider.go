package models

import "time"

// WeeklyWindow is one recurring availability window in the provider's local
// time zone, e.g. {Monday, "09:00", "17:00"}.
type WeeklyWindow struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Start   string       `bson:"start" json:"start"` // "HH:MM", provider-local
	End     string       `bson:"end" json:"end"`     // "HH:MM", provider-local
}

// Provider represents a person or resource that fulfils appointments.
// Read-only to the booking core.
type Provider struct {
	ID       string         `bson:"id" json:"id"`
	Name     string         `bson:"name" json:"name"`
	TimeZone string         `bson:"time_zone" json:"timeZone"` // IANA name, e.g. "Europe/Madrid"
	Weekly   []WeeklyWindow `bson:"weekly" json:"weekly"`
	Active   bool           `bson:"active" json:"active"`
}

// WindowsFor returns the provider's windows matching a weekday.
func (p *Provider) WindowsFor(day time.Weekday) []WeeklyWindow {
	var out []WeeklyWindow
	for _, w := range p.Weekly {
		if w.Weekday == day {
			out = append(out, w)
		}
	}
	return out
}
