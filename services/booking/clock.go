package booking

import (
	"fmt"
	"time"
)

// Clock abstracts "now" so lead-time and past-slot boundaries are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the ambient wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// NormalizeInstant parses an ISO-8601 instant and returns it in UTC. Two
// textually different but equal instants normalize to the same value, so the
// result is safe to use as a store key.
func NormalizeInstant(instant string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, instant)
	}
	return t.UTC(), nil
}

// SlotKeyTime renders a normalized instant as the canonical key string.
func SlotKeyTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Normalize parses and re-renders an instant as a canonical UTC string.
func Normalize(instant string) (string, error) {
	t, err := NormalizeInstant(instant)
	if err != nil {
		return "", err
	}
	return SlotKeyTime(t), nil
}

// SlotKey builds the hold/booking identity for a (serviceId, slot) pair.
func SlotKey(serviceID string, start time.Time) string {
	return serviceID + "|" + SlotKeyTime(start)
}

// IsPast reports whether the instant is strictly before the clock's now.
func IsPast(clk Clock, t time.Time) bool {
	return t.Before(clk.Now())
}

// LeadTimeCutoff returns the earliest bookable instant for a service that
// requires the given hours of advance notice.
func LeadTimeCutoff(clk Clock, hours int) time.Time {
	return clk.Now().Add(time.Duration(hours) * time.Hour)
}
