package attendance

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/logger"
)

// Service implements the clock-in/out state machine. Per employee the
// session moves NONE -> CLOCKED_IN -> CLOCKED_OUT, with at most one
// open session at a time and at most one open break per session.
type Service struct {
	repo         repository.AttendanceRepository
	settingsRepo repository.AttendanceSettingsRepository
	userRepo     repository.UserRepository
	outboxRepo   repository.OutboxRepository
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(
	repo repository.AttendanceRepository,
	settingsRepo repository.AttendanceSettingsRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
		outboxRepo:   outboxRepo,
		logger:       log,
		now:          time.Now,
	}
}

// workStartAt anchors the configured work-start minute onto t's UTC
// calendar day.
func workStartAt(t time.Time, settings *model.AttendanceSettings) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(settings.WorkStartMinute) * time.Minute)
}

func (s *Service) ClockIn(ctx context.Context, employeeID, organizationID uuid.UUID, req *model.ClockInRequest) (*model.Attendance, error) {
	if _, err := s.repo.GetOpenSessionByEmployee(ctx, employeeID); err == nil {
		return nil, errors.Conflict("you are already clocked in", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open session: %w", err)
	}

	settings, err := s.settingsRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance settings: %w", err)
	}

	user, err := s.userRepo.Get(ctx, employeeID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("employee", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}
	if !user.Role.IsStaff() {
		return nil, errors.Forbidden("only staff members can clock in", nil)
	}

	if settings.RequireLocation && strings.TrimSpace(req.Location) == "" {
		return nil, errors.BadRequest("location is required for clocking in", nil)
	}

	now := s.now()
	workStart := workStartAt(now, settings)
	graceEnd := workStart.Add(time.Duration(settings.GracePeriodMinutes) * time.Minute)

	// Lateness is measured from work start, not from the end of the
	// grace period.
	isLate := now.After(graceEnd)
	lateMinutes := 0
	if isLate {
		lateMinutes = int(now.Sub(workStart).Minutes())
	}

	attendance := &model.Attendance{
		OrganizationID: organizationID,
		BranchID:       user.BranchID,
		EmployeeID:     employeeID,
		ClockInTime:    now,
		Status:         model.AttendanceStatusClockedIn,
		Notes:          req.Notes,
		IsLate:         isLate,
		LateMinutes:    lateMinutes,
	}
	if req.Location != "" {
		attendance.Location = &req.Location
	}

	err = s.repo.CreateSession(ctx, attendance)
	if stderrors.Is(err, repository.ErrConflict) {
		return nil, errors.Conflict("you are already clocked in", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}

	if err := s.userRepo.SetClockedIn(ctx, employeeID, true); err != nil {
		return nil, fmt.Errorf("failed to update staff profile: %w", err)
	}
	return attendance, nil
}

func (s *Service) ClockOut(ctx context.Context, employeeID, organizationID uuid.UUID) (*model.Attendance, error) {
	attendance, err := s.repo.GetOpenSessionByEmployee(ctx, employeeID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("active attendance", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	settings, err := s.settingsRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance settings: %w", err)
	}

	breaks, err := s.repo.GetBreaks(ctx, attendance.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get breaks: %w", err)
	}

	closeSession(attendance, breaks, settings, s.now())

	if err := s.repo.CloseSession(ctx, attendance); err != nil {
		return nil, fmt.Errorf("failed to close attendance: %w", err)
	}
	if err := s.userRepo.SetClockedIn(ctx, employeeID, false); err != nil {
		return nil, fmt.Errorf("failed to update staff profile: %w", err)
	}

	attendance.Breaks = breaks
	return attendance, nil
}

// closeSession computes clock-out totals in place: worked hours are
// the elapsed minutes minus every closed break, and overtime is the
// excess over the configured threshold.
func closeSession(attendance *model.Attendance, breaks []*model.Break, settings *model.AttendanceSettings, at time.Time) {
	totalMinutes := at.Sub(attendance.ClockInTime).Minutes()

	breakMinutes := 0
	for _, b := range breaks {
		if b.DurationMinutes != nil {
			breakMinutes += *b.DurationMinutes
		}
	}

	workHours := (totalMinutes - float64(breakMinutes)) / 60
	overtime := workHours - settings.OvertimeThreshold
	if overtime < 0 {
		overtime = 0
	}

	attendance.ClockOutTime = &at
	attendance.TotalHours = &workHours
	attendance.OvertimeHours = overtime
	attendance.Status = model.AttendanceStatusClockedOut
}

func (s *Service) StartBreak(ctx context.Context, attendanceID, employeeID uuid.UUID, breakType model.BreakType) (*model.Break, error) {
	attendance, err := s.repo.GetOpenSession(ctx, attendanceID, employeeID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("active attendance", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	if _, err := s.repo.GetOpenBreak(ctx, attendance.ID); err == nil {
		return nil, errors.Conflict("you already have an active break", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open break: %w", err)
	}

	brk := &model.Break{
		AttendanceID: attendance.ID,
		Type:         breakType,
		StartTime:    s.now(),
	}
	err = s.repo.CreateBreak(ctx, brk)
	if stderrors.Is(err, repository.ErrConflict) {
		return nil, errors.Conflict("you already have an active break", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create break: %w", err)
	}
	return brk, nil
}

func (s *Service) EndBreak(ctx context.Context, attendanceID, employeeID uuid.UUID) (*model.Break, error) {
	if _, err := s.repo.GetOpenSession(ctx, attendanceID, employeeID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("active attendance", err)
		}
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	brk, err := s.repo.GetOpenBreak(ctx, attendanceID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("active break", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open break: %w", err)
	}

	end := s.now()
	duration := int(end.Sub(brk.StartTime).Minutes())
	brk.EndTime = &end
	brk.DurationMinutes = &duration

	if err := s.repo.CloseBreak(ctx, brk); err != nil {
		return nil, fmt.Errorf("failed to close break: %w", err)
	}
	return brk, nil
}

// ReconcileStaleSessions closes every open session whose clock-in is
// older than the auto-clock-out ceiling, performing the normal
// clock-out computation and tagging the notes. It is idempotent and
// safe to run on every read.
func (s *Service) ReconcileStaleSessions(ctx context.Context, employeeID, organizationID uuid.UUID) error {
	settings, err := s.settingsRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to load attendance settings: %w", err)
	}

	cutoff := s.now().Add(-time.Duration(settings.AutoClockOutHours) * time.Hour)
	stale, err := s.repo.ListStaleSessions(ctx, employeeID, organizationID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale sessions: %w", err)
	}

	for _, session := range stale {
		closeSession(session, session.Breaks, settings, s.now())
		session.Notes = strings.TrimSpace(session.Notes + fmt.Sprintf("\n[auto clocked out after %dh]", settings.AutoClockOutHours))

		if err := s.repo.CloseSession(ctx, session); err != nil {
			return fmt.Errorf("failed to auto-close session %s: %w", session.ID, err)
		}
		if err := s.userRepo.SetClockedIn(ctx, employeeID, false); err != nil {
			return fmt.Errorf("failed to update staff profile: %w", err)
		}
		s.publishAutoClosed(ctx, session)
	}
	return nil
}

// publishAutoClosed is best-effort; a failed event never blocks the
// reconcile.
func (s *Service) publishAutoClosed(ctx context.Context, session *model.Attendance) {
	payload, err := json.Marshal(session)
	if err != nil {
		s.logger.Error(err, "failed to encode auto-close event")
		return
	}
	event := &model.OutboxEvent{
		EventType: model.EventAttendanceAutoClosed,
		Payload:   payload,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error(err, "failed to enqueue auto-close event")
	}
}

// GetCurrentAttendance reconciles stale sessions first, then returns
// the employee's open session, or nil when there is none. A reconcile
// failure is logged and does not block the read.
func (s *Service) GetCurrentAttendance(ctx context.Context, employeeID, organizationID uuid.UUID) (*model.Attendance, error) {
	if err := s.ReconcileStaleSessions(ctx, employeeID, organizationID); err != nil {
		s.logger.Error(err, "stale session reconcile failed", "employee_id", employeeID.String())
	}

	attendance, err := s.repo.GetOpenSessionByEmployee(ctx, employeeID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}
	if attendance.OrganizationID != organizationID {
		return nil, nil
	}

	breaks, err := s.repo.GetBreaks(ctx, attendance.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get breaks: %w", err)
	}
	attendance.Breaks = breaks
	return attendance, nil
}

func (s *Service) GetAttendance(ctx context.Context, id, organizationID uuid.UUID) (*model.Attendance, error) {
	attendance, err := s.repo.Get(ctx, id, organizationID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("attendance", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return attendance, nil
}

func (s *Service) ListAttendance(ctx context.Context, filters *model.AttendanceFilters) ([]*model.Attendance, error) {
	// The end date arrives date-only; widen it to the last instant of
	// that day so sessions clocked in on the end day are included.
	if filters.EndDate != nil {
		end := endOfDay(*filters.EndDate)
		filters.EndDate = &end
	}

	sessions, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return sessions, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func (s *Service) GetSettings(ctx context.Context, organizationID uuid.UUID) (*model.AttendanceSettings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance settings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, organizationID uuid.UUID, req *model.UpdateAttendanceSettingsRequest) (*model.AttendanceSettings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance settings: %w", err)
	}

	workStart := settings.WorkStartMinute
	workEnd := settings.WorkEndMinute
	if req.WorkStartMinute != nil {
		workStart = *req.WorkStartMinute
	}
	if req.WorkEndMinute != nil {
		workEnd = *req.WorkEndMinute
	}
	if workEnd <= workStart {
		return nil, errors.BadRequest("work end must be after work start", nil)
	}
	settings.WorkStartMinute = workStart
	settings.WorkEndMinute = workEnd

	if req.GracePeriodMinutes != nil {
		settings.GracePeriodMinutes = *req.GracePeriodMinutes
	}
	if req.OvertimeThreshold != nil {
		settings.OvertimeThreshold = *req.OvertimeThreshold
	}
	if req.RequireLocation != nil {
		settings.RequireLocation = *req.RequireLocation
	}
	if req.AutoClockOutHours != nil {
		settings.AutoClockOutHours = *req.AutoClockOutHours
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update attendance settings: %w", err)
	}
	return settings, nil
}
