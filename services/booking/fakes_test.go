package booking

import (
	"context"
	"sync"
	"time"

	appointmentRepo "slotbook/database/repository/appointment"
	"slotbook/models"
)

type fakeServiceRepo struct {
	services map[string]models.Service
}

func newFakeServiceRepo(services ...models.Service) *fakeServiceRepo {
	m := make(map[string]models.Service)
	for _, s := range services {
		m[s.ID] = s
	}
	return &fakeServiceRepo{services: m}
}

func (f *fakeServiceRepo) GetByID(id string) (*models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeServiceRepo) GetActive() ([]models.Service, error) {
	var out []models.Service
	for _, s := range f.services {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeProviderRepo struct {
	providers map[string]models.Provider
}

func newFakeProviderRepo(providers ...models.Provider) *fakeProviderRepo {
	m := make(map[string]models.Provider)
	for _, p := range providers {
		m[p.ID] = p
	}
	return &fakeProviderRepo{providers: m}
}

func (f *fakeProviderRepo) GetByID(id string) (*models.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProviderRepo) GetByIDs(ids []string) ([]models.Provider, error) {
	var out []models.Provider
	for _, id := range ids {
		if p, ok := f.providers[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeAppointmentRepo mimics the durable store's uniqueness guarantee: the
// mutex plays the role of the transaction, the map key the unique index.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	appts map[string]models.Appointment // key: serviceID|slotKey
}

func newFakeAppointmentRepo(appts ...models.Appointment) *fakeAppointmentRepo {
	m := make(map[string]models.Appointment)
	for _, a := range appts {
		m[a.ServiceID+"|"+a.SlotKey] = a
	}
	return &fakeAppointmentRepo{appts: m}
}

func (f *fakeAppointmentRepo) GetConfirmed(_ context.Context, serviceID, slotKey string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[serviceID+"|"+slotKey]
	if !ok || a.Status != models.AppointmentStatusConfirmed {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAppointmentRepo) FindConfirmedInRange(_ context.Context, serviceID string, from, to time.Time) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.appts {
		if a.ServiceID != serviceID || a.Status != models.AppointmentStatusConfirmed {
			continue
		}
		if a.Start.Before(from) || !a.Start.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CreateConfirmed(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := appt.ServiceID + "|" + appt.SlotKey
	if existing, ok := f.appts[key]; ok && existing.Status == models.AppointmentStatusConfirmed {
		return appointmentRepo.ErrSlotTaken
	}
	f.appts[key] = *appt
	return nil
}
