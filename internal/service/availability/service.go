package availability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
	"github.com/salonkit/salon-api/pkg/errors"
)

// Service answers "when does this artist work" and manages the ad-hoc
// blockouts layered on top of the weekly schedule.
type Service struct {
	repo     repository.AvailabilityRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewService(repo repository.AvailabilityRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		now:      time.Now,
	}
}

// SetSchedule validates and atomically replaces the artist's whole
// weekly schedule. Validation rejects before any write so a bad slot
// never leaves the artist with a half-applied schedule.
func (s *Service) SetSchedule(ctx context.Context, req *model.SetScheduleRequest) ([]*model.AvailabilitySlot, error) {
	artist, err := s.userRepo.Get(ctx, req.ArtistID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("artist", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artist: %w", err)
	}

	slots := make([]*model.AvailabilitySlot, 0, len(req.Schedule))
	for _, input := range req.Schedule {
		if err := validateSlot(input); err != nil {
			return nil, err
		}
		slots = append(slots, &model.AvailabilitySlot{
			OrganizationID: artist.OrganizationID,
			ArtistID:       req.ArtistID,
			DayOfWeek:      input.DayOfWeek,
			StartMinute:    input.StartMinute,
			EndMinute:      input.EndMinute,
		})
	}

	if err := s.repo.ReplaceSchedule(ctx, req.ArtistID, slots); err != nil {
		return nil, fmt.Errorf("failed to replace schedule: %w", err)
	}

	return s.repo.GetSchedule(ctx, req.ArtistID)
}

func validateSlot(input model.ScheduleSlotInput) error {
	if input.DayOfWeek < model.DayMonday || input.DayOfWeek > model.DaySunday {
		return errors.BadRequest(fmt.Sprintf("day_of_week must be between 1 and 7, got %d", input.DayOfWeek), nil)
	}
	if input.StartMinute < 0 || input.EndMinute < 0 {
		return errors.BadRequest("schedule minutes must not be negative", nil)
	}
	if input.StartMinute >= model.MinutesInDay || input.EndMinute >= model.MinutesInDay {
		return errors.BadRequest(fmt.Sprintf("schedule minutes must be below %d", model.MinutesInDay), nil)
	}
	if input.EndMinute <= input.StartMinute {
		return errors.BadRequest("slot end must be after slot start", nil)
	}
	return nil
}

func (s *Service) GetSchedule(ctx context.Context, artistID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	slots, err := s.repo.GetSchedule(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return slots, nil
}

// WorkWindow picks the artist's working window for a day of week.
// Duplicate rows for the same day are possible; the earliest inserted
// row wins, matching the repository's ordering.
func WorkWindow(slots []*model.AvailabilitySlot, dayOfWeek int) (*model.AvailabilitySlot, bool) {
	for _, slot := range slots {
		if slot.DayOfWeek == dayOfWeek {
			return slot, true
		}
	}
	return nil, false
}

func (s *Service) CreateBlockout(ctx context.Context, req *model.CreateBlockoutRequest, organizationID uuid.UUID) (*model.Blockout, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.BadRequest("blockout end must be after start", nil)
	}

	blockout := &model.Blockout{
		OrganizationID: organizationID,
		ArtistID:       req.ArtistID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
	}
	if err := s.repo.CreateBlockout(ctx, blockout); err != nil {
		return nil, fmt.Errorf("failed to create blockout: %w", err)
	}
	return blockout, nil
}

// GetBlockouts returns only future blockouts, ascending.
func (s *Service) GetBlockouts(ctx context.Context, artistID uuid.UUID) ([]*model.Blockout, error) {
	blockouts, err := s.repo.GetFutureBlockouts(ctx, artistID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get blockouts: %w", err)
	}
	return blockouts, nil
}

func (s *Service) DeleteBlockout(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteBlockout(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("blockout", err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete blockout: %w", err)
	}
	return nil
}
