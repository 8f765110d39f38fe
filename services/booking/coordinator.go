// File: services/booking/coordinator.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentRepo "slotbook/database/repository/appointment"
	serviceRepo "slotbook/database/repository/service"
	"slotbook/models"
	"slotbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingCoordinator implements BookingCoordinator. It holds no
// per-request state: all cross-request coordination is delegated to the hold
// store's atomic create and the durable store's uniqueness guarantee.
type DefaultBookingCoordinator struct {
	ServiceRepo     serviceRepo.ServiceRepository
	AppointmentRepo appointmentRepo.AppointmentRepository
	Holds           HoldStore
	Clock           Clock
	Sweeper         ExpiryScheduler // optional
}

func (c *DefaultBookingCoordinator) CheckSlot(ctx context.Context, serviceID, slot, requesterID string, providerID string) (*models.SlotCheck, error) {
	slotTime, err := NormalizeInstant(slot)
	if err != nil {
		return nil, err
	}

	svc, err := c.ServiceRepo.GetByID(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	reasons, holdView, err := c.validate(ctx, svc, slotTime, requesterID, providerID)
	if err != nil {
		return nil, err
	}
	if reasons == nil {
		reasons = []string{}
	}
	return &models.SlotCheck{
		ServiceID: serviceID,
		Slot:      SlotKeyTime(slotTime),
		Available: len(reasons) == 0,
		Reasons:   reasons,
		Hold:      holdView,
	}, nil
}

// validate collects every applicable reason code. It never short-circuits:
// multiple independent reasons may apply at once and the caller gets them all.
func (c *DefaultBookingCoordinator) validate(ctx context.Context, svc *models.Service, slotTime time.Time, requesterID, providerID string) ([]string, *models.HoldView, error) {
	var reasons []string

	if !svc.Active {
		reasons = append(reasons, ReasonServiceInactive)
	}
	if IsPast(c.Clock, slotTime) {
		reasons = append(reasons, ReasonPastSlot)
	}
	if svc.LeadTimeHours > 0 && slotTime.Before(LeadTimeCutoff(c.Clock, svc.LeadTimeHours)) {
		reasons = append(reasons, ReasonLeadTimeNotMet)
	}
	if providerID != "" && !svc.OffersProvider(providerID) {
		reasons = append(reasons, ReasonProviderNotAvailable)
	}

	appt, err := c.AppointmentRepo.GetConfirmed(ctx, svc.ID, SlotKeyTime(slotTime))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check confirmed appointments: %w", err)
	}
	if appt != nil {
		reasons = append(reasons, ReasonAlreadyBooked)
	}

	hold, remaining, err := c.Holds.Get(ctx, svc.ID, slotTime)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check hold state: %w", err)
	}
	var holdView *models.HoldView
	if hold != nil {
		v := hold.View(requesterID, remaining)
		holdView = &v
		if v.HeldByRequester {
			reasons = append(reasons, ReasonOnHold)
		} else {
			reasons = append(reasons, ReasonAlreadyOnHold)
		}
	}
	return reasons, holdView, nil
}

func (c *DefaultBookingCoordinator) PlaceHold(ctx context.Context, slot string, req HoldRequest) (*models.Hold, error) {
	logger := utils.GetLogger()

	slotTime, err := NormalizeInstant(slot)
	if err != nil {
		return nil, err
	}
	req.Slot = slotTime

	svc, err := c.ServiceRepo.GetByID(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	reasons, holdView, err := c.validate(ctx, svc, slotTime, req.CustomerID, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		return nil, &RejectionError{Reasons: reasons, Hold: holdView}
	}

	// The create below is the only arbiter for who gets the hold; the
	// validation read above is advisory. A losing create is a legitimate
	// business outcome and is never retried.
	hold, err := c.Holds.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.Sweeper != nil {
		if err := c.Sweeper.ScheduleExpiryCheck(ctx, hold); err != nil {
			logger.Warn("failed to schedule hold expiry check",
				zap.String("serviceID", hold.ServiceID), zap.String("slot", hold.Slot), zap.Error(err))
		}
	}
	return hold, nil
}

func (c *DefaultBookingCoordinator) ExtendHold(ctx context.Context, serviceID, slot, customerID string, additionalSeconds int) error {
	slotTime, err := NormalizeInstant(slot)
	if err != nil {
		return err
	}
	return c.Holds.Extend(ctx, serviceID, slotTime, customerID, additionalSeconds)
}

func (c *DefaultBookingCoordinator) ReleaseHold(ctx context.Context, serviceID, slot, customerID string) error {
	slotTime, err := NormalizeInstant(slot)
	if err != nil {
		return err
	}
	return c.Holds.Release(ctx, serviceID, slotTime, customerID)
}

// ConfirmRequest carries the inputs for promoting a held slot.
type ConfirmRequest struct {
	ServiceID  string
	Slot       string
	CustomerID string
	ProviderID string
	Notes      string
}

// Confirm re-validates against the durable store inside the repository
// transaction, not against the hold: the hold alone does not stop every race
// (expiry mid-checkout, operator override paths).
func (c *DefaultBookingCoordinator) Confirm(ctx context.Context, req ConfirmRequest) (*models.Appointment, error) {
	logger := utils.GetLogger()

	slotTime, err := NormalizeInstant(req.Slot)
	if err != nil {
		return nil, err
	}

	svc, err := c.ServiceRepo.GetByID(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	var reasons []string
	if !svc.Active {
		reasons = append(reasons, ReasonServiceInactive)
	}
	if IsPast(c.Clock, slotTime) {
		reasons = append(reasons, ReasonPastSlot)
	}
	if req.ProviderID != "" && !svc.OffersProvider(req.ProviderID) {
		reasons = append(reasons, ReasonProviderNotAvailable)
	}
	if len(reasons) > 0 {
		return nil, &RejectionError{Reasons: reasons}
	}

	providerID := req.ProviderID
	if providerID == "" {
		// Carry the provider preference recorded on the hold, if any.
		if hold, _, err := c.Holds.Get(ctx, req.ServiceID, slotTime); err == nil && hold != nil {
			providerID = hold.ProviderID
		}
	}

	now := c.Clock.Now()
	appt := &models.Appointment{
		ID:         uuid.New().String(),
		ServiceID:  req.ServiceID,
		SlotKey:    SlotKeyTime(slotTime),
		Start:      slotTime,
		End:        slotTime.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		TimeZone:   "UTC",
		ClientID:   req.CustomerID,
		ProviderID: providerID,
		Status:     models.AppointmentStatusConfirmed,
		Notes:      req.Notes,
		CreatedAt:  now,
	}

	if err := c.AppointmentRepo.CreateConfirmed(ctx, appt); err != nil {
		if errors.Is(err, appointmentRepo.ErrSlotTaken) {
			return nil, &RejectionError{Reasons: []string{ReasonAlreadyBooked}}
		}
		return nil, fmt.Errorf("failed to persist appointment: %w", err)
	}

	// Best effort: free the hold early instead of letting it ride out its
	// TTL. Failure here never unwinds the confirmed appointment.
	if err := c.Holds.Release(ctx, req.ServiceID, slotTime, req.CustomerID); err != nil {
		logger.Debug("post-confirm hold release skipped",
			zap.String("serviceID", req.ServiceID), zap.String("slot", appt.SlotKey), zap.Error(err))
	}

	return appt, nil
}
