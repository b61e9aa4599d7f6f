package appointment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
	"github.com/salonkit/salon-api/pkg/errors"
)

type Service struct {
	repo             repository.AppointmentRepository
	availabilityRepo repository.AvailabilityRepository
	serviceRepo      repository.ServiceRepository
	userRepo         repository.UserRepository
}

func NewService(
	repo repository.AppointmentRepository,
	availabilityRepo repository.AvailabilityRepository,
	serviceRepo repository.ServiceRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		repo:             repo,
		availabilityRepo: availabilityRepo,
		serviceRepo:      serviceRepo,
		userRepo:         userRepo,
	}
}

func validateSearchWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return errors.BadRequest("search start and end dates are required", nil)
	}
	if end.Before(start) {
		return errors.BadRequest("search end date must not be before start date", nil)
	}
	return nil
}

func (s *Service) resolveService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, err := s.serviceRepo.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("service", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	return service, nil
}

// resolveArtists returns the single requested artist, or every artist
// in the branch when no artist is pinned. An unknown or out-of-scope
// artist id resolves to an empty set rather than an error, so the slot
// search simply returns no candidates for it.
func (s *Service) resolveArtists(ctx context.Context, artistID *uuid.UUID, organizationID, branchID uuid.UUID) ([]*model.User, error) {
	if artistID == nil {
		artists, err := s.userRepo.ListArtists(ctx, organizationID, branchID)
		if err != nil {
			return nil, fmt.Errorf("failed to list artists: %w", err)
		}
		return artists, nil
	}

	artist, err := s.userRepo.Get(ctx, *artistID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artist: %w", err)
	}
	if artist.OrganizationID != organizationID || !artist.InBranch(branchID) || artist.Role != model.UserRoleArtist {
		return nil, nil
	}
	return []*model.User{artist}, nil
}

// CreateAppointment commits a booking only if the requested interval
// is still free at commit time. The availability re-check and insert
// run inside a single repository transaction holding a per-artist
// lock, so concurrent requests for overlapping intervals cannot both
// succeed.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest, organizationID, branchID uuid.UUID) (*model.Appointment, error) {
	service, err := s.resolveService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		OrganizationID: organizationID,
		BranchID:       branchID,
		ArtistID:       req.ArtistID,
		CustomerID:     req.CustomerID,
		ServiceID:      req.ServiceID,
		StartTime:      req.StartTime,
		EndTime:        req.StartTime.Add(time.Duration(service.Duration) * time.Minute),
		Status:         model.AppointmentStatusConfirmed,
		Price:          service.BasePrice,
		Notes:          req.Notes,
	}

	event, err := outboxEvent(model.EventAppointmentCreated, appointment)
	if err != nil {
		return nil, err
	}

	err = s.repo.Book(ctx, appointment, event)
	if stderrors.Is(err, repository.ErrConflict) {
		return nil, errors.Conflict("the requested time slot is no longer available", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, id, organizationID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id, organizationID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id, organizationID uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.GetAppointment(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if err := validateStatusTransition(appointment.Status, *req.Status); err != nil {
			return nil, err
		}
		appointment.Status = *req.Status
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	event, err := outboxEvent(model.EventAppointmentUpdated, appointment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, appointment, event); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return appointment, nil
}

func validateStatusTransition(from, to model.AppointmentStatus) error {
	switch to {
	case model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled, model.AppointmentStatusNoShow:
	default:
		return errors.BadRequest(fmt.Sprintf("unknown appointment status %q", to), nil)
	}
	if from == model.AppointmentStatusCancelled && to == model.AppointmentStatusCompleted {
		return errors.Conflict("cannot complete a cancelled appointment", nil)
	}
	return nil
}

func outboxEvent(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}, nil
}
