package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/pkg/errors"
)

func bookingFixture(t *testing.T) (*Service, *fakeAppointmentRepo, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	orgID := uuid.New()
	artistID := uuid.New()
	serviceID := uuid.New()

	services := &fakeServiceRepo{services: map[uuid.UUID]*model.Service{
		serviceID: {OrganizationID: orgID, Duration: 60, BasePrice: 75},
	}}
	artist := &model.User{OrganizationID: orgID, Role: model.UserRoleArtist}
	artist.ID = artistID
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{artistID: artist}}
	avail := &fakeAvailabilityRepo{}
	repo := &fakeAppointmentRepo{blockoutRepo: avail}

	svc := newTestService(repo, avail, services, users)
	return svc, repo, orgID, artistID, serviceID
}

func TestCreateAppointmentSnapshotsServiceData(t *testing.T) {
	svc, repo, orgID, artistID, serviceID := bookingFixture(t)

	start := monday.Add(10 * time.Hour)
	appt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  start,
	}, orgID, uuid.Nil)

	require.NoError(t, err)
	assert.Equal(t, start.Add(60*time.Minute), appt.EndTime)
	assert.Equal(t, 75.0, appt.Price)
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)

	// The outbox event is committed alongside the booking.
	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, repo.events[0].EventType)
}

func TestCreateAppointmentUnknownService(t *testing.T) {
	svc, _, orgID, artistID, _ := bookingFixture(t)

	_, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  uuid.New(),
		StartTime:  monday,
	}, orgID, uuid.Nil)

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrNotFound))
}

func TestCreateAppointmentConflict(t *testing.T) {
	svc, _, orgID, artistID, serviceID := bookingFixture(t)

	req := &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  monday.Add(10 * time.Hour),
	}

	_, err := svc.CreateAppointment(context.Background(), req, orgID, uuid.Nil)
	require.NoError(t, err)

	// Same interval again.
	_, err = svc.CreateAppointment(context.Background(), req, orgID, uuid.Nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrConflict))

	// A booking starting exactly where the first ends is allowed at
	// commit time: the overlap test is half-open.
	backToBack := *req
	backToBack.StartTime = req.StartTime.Add(60 * time.Minute)
	_, err = svc.CreateAppointment(context.Background(), &backToBack, orgID, uuid.Nil)
	assert.NoError(t, err)
}

func TestCreateAppointmentConcurrentSameSlot(t *testing.T) {
	svc, repo, orgID, artistID, serviceID := bookingFixture(t)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
				ArtistID:   artistID,
				CustomerID: uuid.New(),
				ServiceID:  serviceID,
				StartTime:  monday.Add(14 * time.Hour),
			}, orgID, uuid.Nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.IsKind(err, errors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, repo.appointments, 1)
}

func TestUpdateAppointmentStatusTransitions(t *testing.T) {
	svc, _, orgID, artistID, serviceID := bookingFixture(t)

	appt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  monday.Add(10 * time.Hour),
	}, orgID, uuid.Nil)
	require.NoError(t, err)

	cancelled := model.AppointmentStatusCancelled
	_, err = svc.UpdateAppointment(context.Background(), appt.ID, orgID, &model.UpdateAppointmentRequest{
		Status: &cancelled,
	})
	require.NoError(t, err)

	// A cancelled appointment cannot be completed.
	completed := model.AppointmentStatusCompleted
	_, err = svc.UpdateAppointment(context.Background(), appt.ID, orgID, &model.UpdateAppointmentRequest{
		Status: &completed,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrConflict))

	bogus := model.AppointmentStatus("rescheduled")
	_, err = svc.UpdateAppointment(context.Background(), appt.ID, orgID, &model.UpdateAppointmentRequest{
		Status: &bogus,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrBadRequest))
}

func TestUpdateAppointmentEmitsOutboxEvent(t *testing.T) {
	svc, repo, orgID, artistID, serviceID := bookingFixture(t)

	appt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  monday.Add(10 * time.Hour),
	}, orgID, uuid.Nil)
	require.NoError(t, err)

	completed := model.AppointmentStatusCompleted
	_, err = svc.UpdateAppointment(context.Background(), appt.ID, orgID, &model.UpdateAppointmentRequest{
		Status: &completed,
	})
	require.NoError(t, err)

	// One created event from the booking, one updated event from the
	// status change, committed alongside the row.
	require.Len(t, repo.events, 2)
	assert.Equal(t, model.EventAppointmentUpdated, repo.events[1].EventType)
}

func TestGetAppointmentScopedToOrganization(t *testing.T) {
	svc, _, orgID, artistID, serviceID := bookingFixture(t)

	appt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  monday.Add(10 * time.Hour),
	}, orgID, uuid.Nil)
	require.NoError(t, err)

	_, err = svc.GetAppointment(context.Background(), appt.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrNotFound))
}

func TestCancelledAppointmentFreesTheSlot(t *testing.T) {
	svc, _, orgID, artistID, serviceID := bookingFixture(t)

	req := &model.CreateAppointmentRequest{
		ArtistID:   artistID,
		CustomerID: uuid.New(),
		ServiceID:  serviceID,
		StartTime:  monday.Add(10 * time.Hour),
	}
	appt, err := svc.CreateAppointment(context.Background(), req, orgID, uuid.Nil)
	require.NoError(t, err)

	cancelled := model.AppointmentStatusCancelled
	_, err = svc.UpdateAppointment(context.Background(), appt.ID, orgID, &model.UpdateAppointmentRequest{
		Status: &cancelled,
	})
	require.NoError(t, err)

	// Cancelled appointments no longer block the interval.
	_, err = svc.CreateAppointment(context.Background(), req, orgID, uuid.Nil)
	assert.NoError(t, err)
}
