package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
)

// Sentinel errors shared by all storage implementations. Services map
// these onto the public error taxonomy.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflicting record")
)

// All repository interfaces in one file
type (
	// ServiceRepository resolves bookable services.
	ServiceRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
	}

	// UserRepository reads staff and manages the clock-status flag on
	// the staff profile.
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		ListArtists(ctx context.Context, organizationID, branchID uuid.UUID) ([]*model.User, error)
		// SetClockedIn flips the staff profile flag, creating a minimal
		// profile when none exists yet.
		SetClockedIn(ctx context.Context, userID uuid.UUID, clockedIn bool) error
	}

	AvailabilityRepository interface {
		// ReplaceSchedule atomically deletes the artist's whole weekly
		// schedule and inserts the new one.
		ReplaceSchedule(ctx context.Context, artistID uuid.UUID, slots []*model.AvailabilitySlot) error
		GetSchedule(ctx context.Context, artistID uuid.UUID) ([]*model.AvailabilitySlot, error)
		CreateBlockout(ctx context.Context, blockout *model.Blockout) error
		// GetFutureBlockouts returns blockouts starting at or after now,
		// ascending.
		GetFutureBlockouts(ctx context.Context, artistID uuid.UUID, now time.Time) ([]*model.Blockout, error)
		// GetBlockoutsInRange returns blockouts overlapping [start, end]
		// with inclusive boundary comparison.
		GetBlockoutsInRange(ctx context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Blockout, error)
		DeleteBlockout(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		// Book commits the appointment and the outbox event in a single
		// transaction, holding an advisory lock on the artist while
		// re-checking for conflicting appointments and blockouts with the
		// strict half-open overlap test. Returns ErrConflict if the slot
		// is taken.
		Book(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		Get(ctx context.Context, id, organizationID uuid.UUID) (*model.Appointment, error)
		// Update writes the mutable fields and, when event is non-nil,
		// the outbox event in the same transaction.
		Update(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// GetBlockingInRange returns blocking-status appointments
		// overlapping [start, end] with inclusive boundary comparison,
		// ordered by start time.
		GetBlockingInRange(ctx context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
	}

	AttendanceRepository interface {
		// CreateSession inserts a clocked-in session. Returns ErrConflict
		// when the employee already has an open session (enforced by a
		// partial unique index, not check-then-insert).
		CreateSession(ctx context.Context, attendance *model.Attendance) error
		GetOpenSessionByEmployee(ctx context.Context, employeeID uuid.UUID) (*model.Attendance, error)
		// GetOpenSession matches an open session by id and employee.
		GetOpenSession(ctx context.Context, id, employeeID uuid.UUID) (*model.Attendance, error)
		// CloseSession persists clock-out fields and flips the status.
		CloseSession(ctx context.Context, attendance *model.Attendance) error
		// ListStaleSessions returns open sessions whose clock-in is
		// before the cutoff, breaks preloaded.
		ListStaleSessions(ctx context.Context, employeeID, organizationID uuid.UUID, cutoff time.Time) ([]*model.Attendance, error)
		Get(ctx context.Context, id, organizationID uuid.UUID) (*model.Attendance, error)
		List(ctx context.Context, filters *model.AttendanceFilters) ([]*model.Attendance, error)

		GetBreaks(ctx context.Context, attendanceID uuid.UUID) ([]*model.Break, error)
		GetOpenBreak(ctx context.Context, attendanceID uuid.UUID) (*model.Break, error)
		CreateBreak(ctx context.Context, brk *model.Break) error
		CloseBreak(ctx context.Context, brk *model.Break) error
	}

	AttendanceSettingsRepository interface {
		// GetOrCreate returns the organization's settings, inserting the
		// defaults when the row is absent.
		GetOrCreate(ctx context.Context, organizationID uuid.UUID) (*model.AttendanceSettings, error)
		Update(ctx context.Context, settings *model.AttendanceSettings) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock atomically claims up to limit pending
		// events, so concurrent claimers receive disjoint batches.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	}
)
