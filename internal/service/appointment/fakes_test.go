package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func (f *fakeServiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return svc, nil
}

type fakeUserRepo struct {
	users     map[uuid.UUID]*model.User
	clockedIn map[uuid.UUID]bool
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListArtists(_ context.Context, organizationID, branchID uuid.UUID) ([]*model.User, error) {
	var artists []*model.User
	for _, u := range f.users {
		if u.OrganizationID == organizationID && u.InBranch(branchID) && u.Role == model.UserRoleArtist {
			artists = append(artists, u)
		}
	}
	return artists, nil
}

func (f *fakeUserRepo) SetClockedIn(_ context.Context, userID uuid.UUID, clockedIn bool) error {
	if f.clockedIn == nil {
		f.clockedIn = make(map[uuid.UUID]bool)
	}
	f.clockedIn[userID] = clockedIn
	return nil
}

type fakeAvailabilityRepo struct {
	schedules map[uuid.UUID][]*model.AvailabilitySlot
	blockouts map[uuid.UUID][]*model.Blockout
}

func (f *fakeAvailabilityRepo) ReplaceSchedule(_ context.Context, artistID uuid.UUID, slots []*model.AvailabilitySlot) error {
	if f.schedules == nil {
		f.schedules = make(map[uuid.UUID][]*model.AvailabilitySlot)
	}
	f.schedules[artistID] = slots
	return nil
}

func (f *fakeAvailabilityRepo) GetSchedule(_ context.Context, artistID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	return f.schedules[artistID], nil
}

func (f *fakeAvailabilityRepo) CreateBlockout(_ context.Context, blockout *model.Blockout) error {
	if f.blockouts == nil {
		f.blockouts = make(map[uuid.UUID][]*model.Blockout)
	}
	blockout.ID = uuid.New()
	f.blockouts[blockout.ArtistID] = append(f.blockouts[blockout.ArtistID], blockout)
	return nil
}

func (f *fakeAvailabilityRepo) GetFutureBlockouts(_ context.Context, artistID uuid.UUID, now time.Time) ([]*model.Blockout, error) {
	var out []*model.Blockout
	for _, b := range f.blockouts[artistID] {
		if !b.StartTime.Before(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) GetBlockoutsInRange(_ context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Blockout, error) {
	var out []*model.Blockout
	for _, b := range f.blockouts[artistID] {
		if !b.StartTime.After(end) && !b.EndTime.Before(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) DeleteBlockout(_ context.Context, id uuid.UUID) error {
	for artistID, list := range f.blockouts {
		for i, b := range list {
			if b.ID == id {
				f.blockouts[artistID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

// fakeAppointmentRepo mirrors the storage layer's commit semantics:
// Book re-checks with the strict half-open overlap under a lock.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments []*model.Appointment
	events       []*model.OutboxEvent
	blockoutRepo *fakeAvailabilityRepo
}

func (f *fakeAppointmentRepo) Book(_ context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.appointments {
		if existing.ArtistID != appointment.ArtistID || !existing.Status.IsBlocking() {
			continue
		}
		if existing.StartTime.Before(appointment.EndTime) && appointment.StartTime.Before(existing.EndTime) {
			return repository.ErrConflict
		}
	}
	if f.blockoutRepo != nil {
		for _, b := range f.blockoutRepo.blockouts[appointment.ArtistID] {
			if b.StartTime.Before(appointment.EndTime) && appointment.StartTime.Before(b.EndTime) {
				return repository.ErrConflict
			}
		}
	}

	appointment.ID = uuid.New()
	f.appointments = append(f.appointments, appointment)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id, organizationID uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ID == id && a.OrganizationID == organizationID {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAppointmentRepo) Update(_ context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.appointments {
		if a.ID == appointment.ID {
			f.appointments[i] = appointment
			if event != nil {
				f.events = append(f.events, event)
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.OrganizationID != filters.OrganizationID {
			continue
		}
		if filters.ArtistID != nil && a.ArtistID != *filters.ArtistID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) GetBlockingInRange(_ context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.ArtistID != artistID || !a.Status.IsBlocking() {
			continue
		}
		if !a.StartTime.After(end) && !a.EndTime.Before(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(
	appointments *fakeAppointmentRepo,
	avail *fakeAvailabilityRepo,
	services *fakeServiceRepo,
	users *fakeUserRepo,
) *Service {
	return NewService(appointments, avail, services, users)
}
