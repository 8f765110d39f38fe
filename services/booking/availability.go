// File: services/booking/availability.go
package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	appointmentRepo "slotbook/database/repository/appointment"
	providerRepo "slotbook/database/repository/provider"
	serviceRepo "slotbook/database/repository/service"
	"slotbook/models"
	"slotbook/utils"

	"go.uber.org/zap"
)

// AvailabilityEngine computes the bookable slot grid for a service over a
// horizon. Listings are advisory: the grid is hold-blind by design, hold
// state is only reported on the single-slot check.
type AvailabilityEngine interface {
	GetAvailability(ctx context.Context, serviceID, providerID string, rangeDays int) (*models.AvailabilityGrid, error)
}

// DefaultAvailabilityEngine implements AvailabilityEngine against the
// external service/provider/appointment stores.
type DefaultAvailabilityEngine struct {
	ServiceRepo      serviceRepo.ServiceRepository
	ProviderRepo     providerRepo.ProviderRepository
	AppointmentRepo  appointmentRepo.AppointmentRepository
	Clock            Clock
	DefaultRangeDays int
	MaxRangeDays     int
}

func (e *DefaultAvailabilityEngine) GetAvailability(ctx context.Context, serviceID, providerID string, rangeDays int) (*models.AvailabilityGrid, error) {
	logger := utils.GetLogger()

	if rangeDays == 0 {
		rangeDays = e.DefaultRangeDays
	}
	if rangeDays < 1 || rangeDays > e.MaxRangeDays {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidRange, rangeDays)
	}

	svc, err := e.ServiceRepo.GetByID(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	now := e.Clock.Now()
	horizonStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	horizonEnd := horizonStart.AddDate(0, 0, rangeDays)

	grid := &models.AvailabilityGrid{
		Range: models.AvailabilityRange{
			Start: SlotKeyTime(horizonStart),
			End:   SlotKeyTime(horizonEnd),
		},
		Filters: models.AvailabilityFilters{
			ServiceID:  serviceID,
			ProviderID: providerID,
			RangeDays:  rangeDays,
		},
	}

	if !svc.Active {
		grid.Flags = append(grid.Flags, ReasonServiceInactive)
		grid.Days = []models.DayAvailability{}
		return grid, nil
	}

	providers, err := e.resolveProviders(svc, providerID)
	if err != nil {
		return nil, err
	}

	// One horizon-scoped query; the appointment set is externally owned and
	// must not be assumed to fit any in-memory cache of ours.
	appts, err := e.AppointmentRepo.FindConfirmedInRange(ctx, serviceID, now, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed appointments: %w", err)
	}
	booked := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		booked[a.SlotKey] = struct{}{}
	}

	cutoff := LeadTimeCutoff(e.Clock, svc.LeadTimeHours)
	if cutoff.Before(now) {
		cutoff = now
	}

	byDay := make(map[string][]models.SlotView)
	for _, p := range providers {
		if !p.Active {
			continue
		}
		loc, err := time.LoadLocation(p.TimeZone)
		if err != nil {
			logger.Warn("provider has invalid time zone, skipping",
				zap.String("providerID", p.ID), zap.String("timeZone", p.TimeZone))
			continue
		}
		e.expandProvider(&p, svc, loc, now, cutoff, horizonEnd, booked, byDay)
	}

	days := make([]models.DayAvailability, 0, rangeDays)
	for i := 0; i < rangeDays; i++ {
		date := horizonStart.AddDate(0, 0, i).Format("2006-01-02")
		slots := byDay[date]
		sort.Slice(slots, func(a, b int) bool {
			if slots[a].Start != slots[b].Start {
				return slots[a].Start < slots[b].Start
			}
			return slots[a].ProviderID < slots[b].ProviderID
		})
		if slots == nil {
			// Empty days are retained so the caller can render "no openings".
			slots = []models.SlotView{}
		}
		days = append(days, models.DayAvailability{Date: date, Slots: slots})
	}
	grid.Days = days
	return grid, nil
}

func (e *DefaultAvailabilityEngine) resolveProviders(svc *models.Service, providerID string) ([]models.Provider, error) {
	if providerID != "" {
		if !svc.OffersProvider(providerID) {
			return nil, &RejectionError{Reasons: []string{ReasonProviderNotAvailable}}
		}
		p, err := e.ProviderRepo.GetByID(providerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve provider: %w", err)
		}
		if p == nil {
			return nil, &RejectionError{Reasons: []string{ReasonProviderNotAvailable}}
		}
		return []models.Provider{*p}, nil
	}
	providers, err := e.ProviderRepo.GetByIDs(svc.ProviderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve providers: %w", err)
	}
	return providers, nil
}

// expandProvider walks the provider's local calendar days covering the
// horizon and materializes weekly windows into concrete UTC slots. Windows
// stay in the provider's zone until this final step so DST transitions
// resolve through the location, never through naive hour offsets.
func (e *DefaultAvailabilityEngine) expandProvider(
	p *models.Provider,
	svc *models.Service,
	loc *time.Location,
	now, cutoff, horizonEnd time.Time,
	booked map[string]struct{},
	byDay map[string][]models.SlotView,
) {
	duration := time.Duration(svc.DurationMinutes) * time.Minute
	step := duration + time.Duration(svc.BufferMinutes)*time.Minute
	if duration <= 0 {
		return
	}
	if step <= 0 {
		step = duration
	}

	// Pad one local day each side: a local window can spill into a different
	// UTC date.
	localStart := now.In(loc).AddDate(0, 0, -1)
	localEnd := horizonEnd.In(loc).AddDate(0, 0, 1)

	for d := localStart; d.Before(localEnd); d = d.AddDate(0, 0, 1) {
		for _, w := range p.WindowsFor(d.Weekday()) {
			winStart, winEnd, err := windowBounds(d, w, loc)
			if err != nil {
				continue
			}
			for s := winStart; !s.Add(duration).After(winEnd); s = s.Add(step) {
				startUTC := s.UTC()
				if startUTC.Before(cutoff) || !startUTC.Before(horizonEnd) {
					continue
				}
				key := SlotKeyTime(startUTC)
				if _, taken := booked[key]; taken {
					continue
				}
				date := startUTC.Format("2006-01-02")
				byDay[date] = append(byDay[date], models.SlotView{
					ID:           SlotKey(svc.ID, startUTC),
					Start:        key,
					End:          SlotKeyTime(startUTC.Add(duration)),
					ProviderID:   p.ID,
					ProviderName: p.Name,
				})
			}
		}
	}
}

// windowBounds materializes a weekly window onto a concrete local day.
func windowBounds(day time.Time, w models.WeeklyWindow, loc *time.Location) (time.Time, time.Time, error) {
	sh, sm, err := parseClock(w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := parseClock(w.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %q not after start %q", w.End, w.Start)
	}
	return start, end, nil
}

func parseClock(hhmm string) (int, int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("invalid window time %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid window time %q", hhmm)
	}
	return h, m, nil
}
