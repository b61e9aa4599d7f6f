package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/logger"
)

type fakeAttendanceRepo struct {
	sessions map[uuid.UUID]*model.Attendance
	breaks   map[uuid.UUID][]*model.Break
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{
		sessions: make(map[uuid.UUID]*model.Attendance),
		breaks:   make(map[uuid.UUID][]*model.Break),
	}
}

func (f *fakeAttendanceRepo) CreateSession(_ context.Context, attendance *model.Attendance) error {
	for _, s := range f.sessions {
		if s.EmployeeID == attendance.EmployeeID && s.Status == model.AttendanceStatusClockedIn {
			return repository.ErrConflict
		}
	}
	attendance.ID = uuid.New()
	f.sessions[attendance.ID] = attendance
	return nil
}

func (f *fakeAttendanceRepo) GetOpenSessionByEmployee(_ context.Context, employeeID uuid.UUID) (*model.Attendance, error) {
	for _, s := range f.sessions {
		if s.EmployeeID == employeeID && s.Status == model.AttendanceStatusClockedIn {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttendanceRepo) GetOpenSession(_ context.Context, id, employeeID uuid.UUID) (*model.Attendance, error) {
	s, ok := f.sessions[id]
	if !ok || s.EmployeeID != employeeID || s.Status != model.AttendanceStatusClockedIn {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeAttendanceRepo) CloseSession(_ context.Context, attendance *model.Attendance) error {
	s, ok := f.sessions[attendance.ID]
	if !ok || s.Status != model.AttendanceStatusClockedIn {
		return repository.ErrNotFound
	}
	f.sessions[attendance.ID] = attendance
	return nil
}

func (f *fakeAttendanceRepo) ListStaleSessions(_ context.Context, employeeID, organizationID uuid.UUID, cutoff time.Time) ([]*model.Attendance, error) {
	var out []*model.Attendance
	for _, s := range f.sessions {
		if s.EmployeeID == employeeID && s.OrganizationID == organizationID &&
			s.Status == model.AttendanceStatusClockedIn && s.ClockInTime.Before(cutoff) {
			s.Breaks = f.breaks[s.ID]
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) Get(_ context.Context, id, organizationID uuid.UUID) (*model.Attendance, error) {
	s, ok := f.sessions[id]
	if !ok || s.OrganizationID != organizationID {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, filters *model.AttendanceFilters) ([]*model.Attendance, error) {
	var out []*model.Attendance
	for _, s := range f.sessions {
		if s.OrganizationID != filters.OrganizationID {
			continue
		}
		if filters.EmployeeID != nil && s.EmployeeID != *filters.EmployeeID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		if filters.StartDate != nil && s.ClockInTime.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && s.ClockInTime.After(*filters.EndDate) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeAttendanceRepo) GetBreaks(_ context.Context, attendanceID uuid.UUID) ([]*model.Break, error) {
	return f.breaks[attendanceID], nil
}

func (f *fakeAttendanceRepo) GetOpenBreak(_ context.Context, attendanceID uuid.UUID) (*model.Break, error) {
	for _, b := range f.breaks[attendanceID] {
		if b.EndTime == nil {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttendanceRepo) CreateBreak(_ context.Context, brk *model.Break) error {
	for _, b := range f.breaks[brk.AttendanceID] {
		if b.EndTime == nil {
			return repository.ErrConflict
		}
	}
	brk.ID = uuid.New()
	f.breaks[brk.AttendanceID] = append(f.breaks[brk.AttendanceID], brk)
	return nil
}

func (f *fakeAttendanceRepo) CloseBreak(_ context.Context, brk *model.Break) error {
	for i, b := range f.breaks[brk.AttendanceID] {
		if b.ID == brk.ID && b.EndTime == nil {
			f.breaks[brk.AttendanceID][i] = brk
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSettingsRepo struct {
	settings map[uuid.UUID]*model.AttendanceSettings
}

func (f *fakeSettingsRepo) GetOrCreate(_ context.Context, organizationID uuid.UUID) (*model.AttendanceSettings, error) {
	if f.settings == nil {
		f.settings = make(map[uuid.UUID]*model.AttendanceSettings)
	}
	if s, ok := f.settings[organizationID]; ok {
		return s, nil
	}
	s := model.DefaultAttendanceSettings(organizationID)
	f.settings[organizationID] = s
	return s, nil
}

func (f *fakeSettingsRepo) Update(_ context.Context, settings *model.AttendanceSettings) error {
	f.settings[settings.OrganizationID] = settings
	return nil
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

func (f *fakeUserRepo) ListArtists(_ context.Context, _, _ uuid.UUID) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) SetClockedIn(_ context.Context, userID uuid.UUID, clockedIn bool) error {
	if f.clockedIn == nil {
		f.clockedIn = make(map[uuid.UUID]bool)
	}
	f.clockedIn[userID] = clockedIn
	return nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

type fixture struct {
	svc      *Service
	repo     *fakeAttendanceRepo
	users    *fakeUserRepo
	outbox   *fakeOutboxRepo
	settings *fakeSettingsRepo
	orgID    uuid.UUID
	staffID  uuid.UUID
}

// workday anchors tests at a known UTC morning; defaults put work
// start at 09:00.
var workday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orgID := uuid.New()
	staffID := uuid.New()
	staff := &model.User{OrganizationID: orgID, Role: model.UserRoleArtist}
	staff.ID = staffID

	repo := newFakeAttendanceRepo()
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{staffID: staff}}
	outbox := &fakeOutboxRepo{}
	settings := &fakeSettingsRepo{}

	svc := NewService(repo, settings, users, outbox, logger.NewLogger(nil))
	return &fixture{
		svc:      svc,
		repo:     repo,
		users:    users,
		outbox:   outbox,
		settings: settings,
		orgID:    orgID,
		staffID:  staffID,
	}
}

func (f *fixture) at(t time.Time) {
	f.svc.now = func() time.Time { return t }
}

func TestClockInOnTime(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)
	assert.False(t, session.IsLate)
	assert.Zero(t, session.LateMinutes)
	assert.Equal(t, model.AttendanceStatusClockedIn, session.Status)
	assert.True(t, f.users.clockedIn[f.staffID])
}

func TestClockInWithinGraceIsNotLate(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9*time.Hour + 14*time.Minute))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)
	assert.False(t, session.IsLate)
}

func TestClockInLateMeasuredFromWorkStart(t *testing.T) {
	f := newFixture(t)
	// 09:20 with a 15-minute grace period: late, and lateness counts
	// from 09:00, not from the end of grace.
	f.at(workday.Add(9*time.Hour + 20*time.Minute))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)
	assert.True(t, session.IsLate)
	assert.Equal(t, 20, session.LateMinutes)
}

func TestClockInTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	_, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	_, err = f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrConflict))
}

func TestClockInRejectsNonStaff(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	customerID := uuid.New()
	customer := &model.User{OrganizationID: f.orgID, Role: model.UserRoleCustomer}
	customer.ID = customerID
	f.users.users[customerID] = customer

	_, err := f.svc.ClockIn(context.Background(), customerID, f.orgID, &model.ClockInRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrForbidden))
}

func TestClockInRequiresLocationWhenConfigured(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	settings, err := f.settings.GetOrCreate(context.Background(), f.orgID)
	require.NoError(t, err)
	settings.RequireLocation = true

	_, err = f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrBadRequest))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{Location: "front desk"})
	require.NoError(t, err)
	require.NotNil(t, session.Location)
	assert.Equal(t, "front desk", *session.Location)
}

func TestClockOutComputesBreakAdjustedHours(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	// 30-minute lunch.
	f.at(workday.Add(12 * time.Hour))
	_, err = f.svc.StartBreak(context.Background(), session.ID, f.staffID, model.BreakTypeLunch)
	require.NoError(t, err)
	f.at(workday.Add(12*time.Hour + 30*time.Minute))
	brk, err := f.svc.EndBreak(context.Background(), session.ID, f.staffID)
	require.NoError(t, err)
	require.NotNil(t, brk.DurationMinutes)
	assert.Equal(t, 30, *brk.DurationMinutes)

	// Clock out at 18:30: 9.5h elapsed minus the break is 9h worked,
	// 1h over the 8h threshold.
	f.at(workday.Add(18*time.Hour + 30*time.Minute))
	closed, err := f.svc.ClockOut(context.Background(), f.staffID, f.orgID)
	require.NoError(t, err)
	require.NotNil(t, closed.TotalHours)
	assert.InDelta(t, 9.0, *closed.TotalHours, 0.001)
	assert.InDelta(t, 1.0, closed.OvertimeHours, 0.001)
	assert.Equal(t, model.AttendanceStatusClockedOut, closed.Status)
	assert.False(t, f.users.clockedIn[f.staffID])
}

func TestClockOutWithoutOpenSession(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(17 * time.Hour))

	_, err := f.svc.ClockOut(context.Background(), f.staffID, f.orgID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrNotFound))
}

func TestStartBreakTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	_, err = f.svc.StartBreak(context.Background(), session.ID, f.staffID, model.BreakTypeRest)
	require.NoError(t, err)

	_, err = f.svc.StartBreak(context.Background(), session.ID, f.staffID, model.BreakTypeLunch)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrConflict))
}

func TestEndBreakWithoutOpenBreak(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	_, err = f.svc.EndBreak(context.Background(), session.ID, f.staffID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrNotFound))
}

func TestReconcileClosesStaleSessions(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	session, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	// 13 hours later, past the 12h auto clock-out ceiling.
	f.at(workday.Add(22 * time.Hour))
	require.NoError(t, f.svc.ReconcileStaleSessions(context.Background(), f.staffID, f.orgID))

	closed := f.repo.sessions[session.ID]
	assert.Equal(t, model.AttendanceStatusClockedOut, closed.Status)
	assert.True(t, strings.Contains(closed.Notes, "auto clocked out"))
	assert.False(t, f.users.clockedIn[f.staffID])

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventAttendanceAutoClosed, f.outbox.events[0].EventType)

	// Idempotent: nothing left to close.
	require.NoError(t, f.svc.ReconcileStaleSessions(context.Background(), f.staffID, f.orgID))
	assert.Len(t, f.outbox.events, 1)
}

func TestGetCurrentAttendanceReconcilesFirst(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	_, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	// Within the ceiling the open session comes back.
	f.at(workday.Add(17 * time.Hour))
	current, err := f.svc.GetCurrentAttendance(context.Background(), f.staffID, f.orgID)
	require.NoError(t, err)
	require.NotNil(t, current)

	// Past the ceiling the session is auto-closed and the read is nil.
	f.at(workday.Add(23 * time.Hour))
	current, err = f.svc.GetCurrentAttendance(context.Background(), f.staffID, f.orgID)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestListAttendanceIncludesEndDateSessions(t *testing.T) {
	f := newFixture(t)
	f.at(workday.Add(9 * time.Hour))

	_, err := f.svc.ClockIn(context.Background(), f.staffID, f.orgID, &model.ClockInRequest{})
	require.NoError(t, err)

	// A date-only end filter covers the whole end day, so a session
	// clocked in at 09:00 on that day is not cut off by midnight.
	endDate := workday
	sessions, err := f.svc.ListAttendance(context.Background(), &model.AttendanceFilters{
		OrganizationID: f.orgID,
		EndDate:        &endDate,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	// The day before excludes it.
	dayBefore := workday.Add(-24 * time.Hour)
	sessions, err = f.svc.ListAttendance(context.Background(), &model.AttendanceFilters{
		OrganizationID: f.orgID,
		EndDate:        &dayBefore,
	})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestUpdateSettingsValidatesWindow(t *testing.T) {
	f := newFixture(t)

	start := 600
	end := 540
	_, err := f.svc.UpdateSettings(context.Background(), f.orgID, &model.UpdateAttendanceSettingsRequest{
		WorkStartMinute: &start,
		WorkEndMinute:   &end,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ErrBadRequest))

	grace := 30
	updated, err := f.svc.UpdateSettings(context.Background(), f.orgID, &model.UpdateAttendanceSettingsRequest{
		GracePeriodMinutes: &grace,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.GracePeriodMinutes)
}
