package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"slotbook/models"

	"github.com/alicebob/miniredis/v2"
)

// Fixture matching the canonical scenario: svc-1 is active with a two hour
// lead time, and "now" is 2024-06-01T08:00:00Z.
func newTestCoordinator(t *testing.T, services ...models.Service) (*DefaultBookingCoordinator, *fakeAppointmentRepo, *RedisHoldStore, *miniredis.Miniredis) {
	t.Helper()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if len(services) == 0 {
		services = []models.Service{{
			ID:              "svc-1",
			Active:          true,
			LeadTimeHours:   2,
			DurationMinutes: 60,
			ProviderIDs:     []string{"prov-1"},
		}}
	}
	store, mr := newTestHoldStore(t, FixedClock{At: now})
	appts := newFakeAppointmentRepo()
	coord := &DefaultBookingCoordinator{
		ServiceRepo:     newFakeServiceRepo(services...),
		AppointmentRepo: appts,
		Holds:           store,
		Clock:           FixedClock{At: now},
	}
	return coord, appts, store, mr
}

func TestCoordinator_PlaceHold(t *testing.T) {
	ctx := context.Background()

	t.Run("lead time not met", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		_, err := coord.PlaceHold(ctx, "2024-06-01T09:30:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonLeadTimeNotMet) {
			t.Fatalf("expected LEAD_TIME_NOT_MET, got %v", err)
		}
	})

	t.Run("slot exactly at the cutoff is accepted", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.PlaceHold(ctx, "2024-06-01T10:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"}); err != nil {
			t.Fatalf("expected accept at exact cutoff, got %v", err)
		}
	})

	t.Run("one second inside the lead window is rejected", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		_, err := coord.PlaceHold(ctx, "2024-06-01T09:59:59Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonLeadTimeNotMet) {
			t.Fatalf("expected LEAD_TIME_NOT_MET, got %v", err)
		}
	})

	t.Run("past slot always rejected with PAST_SLOT", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		_, err := coord.PlaceHold(ctx, "2024-06-01T07:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonPastSlot) {
			t.Fatalf("expected PAST_SLOT, got %v", err)
		}
		// Multiple independent reasons accumulate rather than short-circuit.
		if !rejection.Has(ReasonLeadTimeNotMet) {
			t.Fatalf("expected LEAD_TIME_NOT_MET alongside PAST_SLOT, got %v", rejection.Reasons)
		}
	})

	t.Run("provider must offer the service", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		_, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a", ProviderID: "prov-x"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonProviderNotAvailable) {
			t.Fatalf("expected PROVIDER_NOT_AVAILABLE_FOR_SERVICE, got %v", err)
		}
	})

	t.Run("confirmed slot cannot be held", func(t *testing.T) {
		coord, appts, _, _ := newTestCoordinator(t)
		appts.appts["svc-1|2024-06-01T11:00:00Z"] = models.Appointment{
			ServiceID: "svc-1", SlotKey: "2024-06-01T11:00:00Z",
			Status: models.AppointmentStatusConfirmed,
		}
		_, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonAlreadyBooked) {
			t.Fatalf("expected ALREADY_BOOKED, got %v", err)
		}
	})

	t.Run("inactive service", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t, models.Service{ID: "svc-1", Active: false, DurationMinutes: 60})
		_, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonServiceInactive) {
			t.Fatalf("expected SERVICE_INACTIVE, got %v", err)
		}
	})

	t.Run("unknown service short-circuits", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "missing", CustomerID: "cust-a"}); !errors.Is(err, ErrServiceNotFound) {
			t.Fatalf("expected ErrServiceNotFound, got %v", err)
		}
	})

	t.Run("malformed slot", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.PlaceHold(ctx, "not-a-time", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"}); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
		}
	})

	t.Run("contended slot goes to one customer then frees on expiry", func(t *testing.T) {
		coord, _, _, mr := newTestCoordinator(t)

		hold, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", TTLSeconds: 300, CustomerID: "cust-a"})
		if err != nil {
			t.Fatalf("first hold failed: %v", err)
		}
		if hold.TTLSeconds != 300 {
			t.Fatalf("expected TTL 300, got %d", hold.TTLSeconds)
		}

		_, err = coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", TTLSeconds: 300, CustomerID: "cust-b"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonAlreadyOnHold) {
			t.Fatalf("expected ALREADY_ON_HOLD for second customer, got %v", err)
		}
		if rejection.Hold == nil || rejection.Hold.HeldByRequester {
			t.Fatalf("expected opaque hold view for the other customer, got %+v", rejection.Hold)
		}

		mr.FastForward(301 * time.Second)
		if _, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", TTLSeconds: 300, CustomerID: "cust-b"}); err != nil {
			t.Fatalf("expected hold to succeed after expiry, got %v", err)
		}
	})

	t.Run("equivalent instants map to the same hold", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"}); err != nil {
			t.Fatalf("first hold failed: %v", err)
		}
		// Same instant spelled with an offset must hit the same key.
		_, err := coord.PlaceHold(ctx, "2024-06-01T13:00:00+02:00", HoldRequest{ServiceID: "svc-1", CustomerID: "cust-b"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonAlreadyOnHold) {
			t.Fatalf("expected ALREADY_ON_HOLD for equivalent instant, got %v", err)
		}
	})
}

func TestCoordinator_CheckSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("free slot reports available with empty reasons", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		check, err := coord.CheckSlot(ctx, "svc-1", "2024-06-01T11:00:00Z", "cust-a", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !check.Available || len(check.Reasons) != 0 || check.Hold != nil {
			t.Fatalf("expected clean availability, got %+v", check)
		}
	})

	t.Run("held slot reports the hold without the owner identity", func(t *testing.T) {
		coord, _, store, _ := newTestCoordinator(t)
		if _, err := store.Create(ctx, HoldRequest{ServiceID: "svc-1", Slot: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), TTLSeconds: 300, CustomerID: "cust-a", ProviderID: "prov-1"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		check, err := coord.CheckSlot(ctx, "svc-1", "2024-06-01T11:00:00Z", "cust-b", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if check.Available {
			t.Fatalf("expected unavailable")
		}
		found := false
		for _, r := range check.Reasons {
			if r == ReasonAlreadyOnHold {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected ALREADY_ON_HOLD in %v", check.Reasons)
		}
		if check.Hold == nil || check.Hold.HeldByRequester {
			t.Fatalf("expected foreign hold view, got %+v", check.Hold)
		}
		if check.Hold.RemainingSeconds <= 0 {
			t.Fatalf("expected positive remaining TTL, got %d", check.Hold.RemainingSeconds)
		}
	})

	t.Run("own hold reports ON_HOLD", func(t *testing.T) {
		coord, _, store, _ := newTestCoordinator(t)
		if _, err := store.Create(ctx, HoldRequest{ServiceID: "svc-1", Slot: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), TTLSeconds: 300, CustomerID: "cust-a"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		check, err := coord.CheckSlot(ctx, "svc-1", "2024-06-01T11:00:00Z", "cust-a", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		found := false
		for _, r := range check.Reasons {
			if r == ReasonOnHold {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected ON_HOLD in %v", check.Reasons)
		}
		if check.Hold == nil || !check.Hold.HeldByRequester {
			t.Fatalf("expected own hold view, got %+v", check.Hold)
		}
	})
}

func TestCoordinator_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes a held slot and frees the hold", func(t *testing.T) {
		coord, appts, store, _ := newTestCoordinator(t)
		slot := "2024-06-01T11:00:00Z"
		if _, err := coord.PlaceHold(ctx, slot, HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a", ProviderID: "prov-1"}); err != nil {
			t.Fatalf("hold failed: %v", err)
		}

		appt, err := coord.Confirm(ctx, ConfirmRequest{ServiceID: "svc-1", Slot: slot, CustomerID: "cust-a"})
		if err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		if appt.SlotKey != slot || appt.Status != models.AppointmentStatusConfirmed {
			t.Fatalf("unexpected appointment %+v", appt)
		}
		if appt.ProviderID != "prov-1" {
			t.Fatalf("expected provider carried over from the hold, got %q", appt.ProviderID)
		}
		if want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC); !appt.End.Equal(want) {
			t.Fatalf("expected end %v, got %v", want, appt.End)
		}
		if stored, _ := appts.GetConfirmed(ctx, "svc-1", slot); stored == nil {
			t.Fatalf("appointment not persisted")
		}
		if hold, _, _ := store.Get(ctx, "svc-1", time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)); hold != nil {
			t.Fatalf("expected hold released after confirm, got %+v", hold)
		}
	})

	t.Run("succeeds without a hold - holds are advisory", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.Confirm(ctx, ConfirmRequest{ServiceID: "svc-1", Slot: "2024-06-01T11:00:00Z", CustomerID: "cust-a"}); err != nil {
			t.Fatalf("confirm without hold failed: %v", err)
		}
	})

	t.Run("concurrent confirms yield one appointment and one ALREADY_BOOKED", func(t *testing.T) {
		coord, appts, _, _ := newTestCoordinator(t)
		slot := "2024-06-01T11:00:00Z"

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, cust := range []string{"cust-a", "cust-b"} {
			wg.Add(1)
			go func(i int, cust string) {
				defer wg.Done()
				_, err := coord.Confirm(ctx, ConfirmRequest{ServiceID: "svc-1", Slot: slot, CustomerID: cust})
				results[i] = err
			}(i, cust)
		}
		wg.Wait()

		wins, conflicts := 0, 0
		for _, err := range results {
			var rejection *RejectionError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &rejection) && rejection.Has(ReasonAlreadyBooked):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if wins != 1 || conflicts != 1 {
			t.Fatalf("expected 1 winner and 1 ALREADY_BOOKED, got %d and %d", wins, conflicts)
		}
		if stored, _ := appts.GetConfirmed(ctx, "svc-1", slot); stored == nil {
			t.Fatalf("expected exactly one durable appointment")
		}
	})

	t.Run("unknown service", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		if _, err := coord.Confirm(ctx, ConfirmRequest{ServiceID: "missing", Slot: "2024-06-01T11:00:00Z", CustomerID: "cust-a"}); !errors.Is(err, ErrServiceNotFound) {
			t.Fatalf("expected ErrServiceNotFound, got %v", err)
		}
	})

	t.Run("past slot cannot be confirmed", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator(t)
		_, err := coord.Confirm(ctx, ConfirmRequest{ServiceID: "svc-1", Slot: "2024-06-01T07:00:00Z", CustomerID: "cust-a"})
		var rejection *RejectionError
		if !errors.As(err, &rejection) || !rejection.Has(ReasonPastSlot) {
			t.Fatalf("expected PAST_SLOT, got %v", err)
		}
	})
}

func TestCoordinator_ReleaseHold(t *testing.T) {
	ctx := context.Background()

	coord, _, _, _ := newTestCoordinator(t)
	slot := "2024-06-01T11:00:00Z"
	if _, err := coord.PlaceHold(ctx, slot, HoldRequest{ServiceID: "svc-1", CustomerID: "cust-a"}); err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	if err := coord.ReleaseHold(ctx, "svc-1", slot, "cust-b"); !errors.Is(err, ErrNotHoldOwner) {
		t.Fatalf("expected ErrNotHoldOwner for a third party, got %v", err)
	}
	if err := coord.ReleaseHold(ctx, "svc-1", slot, "cust-a"); err != nil {
		t.Fatalf("owner release failed: %v", err)
	}
	if err := coord.ReleaseHold(ctx, "svc-1", slot, "cust-a"); err != nil {
		t.Fatalf("repeat release must stay idempotent, got %v", err)
	}
}

type recordingSweeper struct {
	mu    sync.Mutex
	holds []models.Hold
}

func (r *recordingSweeper) ScheduleExpiryCheck(_ context.Context, hold *models.Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds = append(r.holds, *hold)
	return nil
}

func TestCoordinator_SchedulesExpirySweep(t *testing.T) {
	ctx := context.Background()

	coord, _, _, _ := newTestCoordinator(t)
	sweeper := &recordingSweeper{}
	coord.Sweeper = sweeper

	if _, err := coord.PlaceHold(ctx, "2024-06-01T11:00:00Z", HoldRequest{ServiceID: "svc-1", TTLSeconds: 300, CustomerID: "cust-a"}); err != nil {
		t.Fatalf("hold failed: %v", err)
	}
	if len(sweeper.holds) != 1 {
		t.Fatalf("expected one scheduled expiry check, got %d", len(sweeper.holds))
	}
	want := time.Date(2024, 6, 1, 8, 5, 0, 0, time.UTC)
	if !sweeper.holds[0].ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, sweeper.holds[0].ExpiresAt)
	}
}
