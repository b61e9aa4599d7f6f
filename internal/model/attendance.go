package model

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendanceStatusClockedIn  AttendanceStatus = "clocked_in"
	AttendanceStatusClockedOut AttendanceStatus = "clocked_out"
)

type BreakType string

const (
	BreakTypeLunch    BreakType = "lunch"
	BreakTypeRest     BreakType = "rest"
	BreakTypePersonal BreakType = "personal"
)

// AttendanceSettings is one row per organization, lazily created with
// defaults on first access.
type AttendanceSettings struct {
	Base
	OrganizationID     uuid.UUID `db:"organization_id" json:"organization_id"`
	WorkStartMinute    int       `db:"work_start_minute" json:"work_start_minute"`
	WorkEndMinute      int       `db:"work_end_minute" json:"work_end_minute"`
	GracePeriodMinutes int       `db:"grace_period_minutes" json:"grace_period_minutes"`
	OvertimeThreshold  float64   `db:"overtime_threshold" json:"overtime_threshold"` // hours
	RequireLocation    bool      `db:"require_location" json:"require_location"`
	AutoClockOutHours  int       `db:"auto_clock_out_hours" json:"auto_clock_out_hours"`
}

// DefaultAttendanceSettings returns the lazily-applied defaults:
// 9:00-17:00, 15 min grace, 8h overtime threshold, 12h auto clock-out.
func DefaultAttendanceSettings(organizationID uuid.UUID) *AttendanceSettings {
	return &AttendanceSettings{
		OrganizationID:     organizationID,
		WorkStartMinute:    540,
		WorkEndMinute:      1020,
		GracePeriodMinutes: 15,
		OvertimeThreshold:  8.0,
		RequireLocation:    false,
		AutoClockOutHours:  12,
	}
}

// Attendance is one clock-in/out session. At most one row per employee
// may be clocked_in at any time.
type Attendance struct {
	Base
	OrganizationID uuid.UUID        `db:"organization_id" json:"organization_id"`
	BranchID       *uuid.UUID       `db:"branch_id" json:"branch_id,omitempty"`
	EmployeeID     uuid.UUID        `db:"employee_id" json:"employee_id"`
	ClockInTime    time.Time        `db:"clock_in_time" json:"clock_in_time"`
	ClockOutTime   *time.Time       `db:"clock_out_time" json:"clock_out_time,omitempty"`
	TotalHours     *float64         `db:"total_hours" json:"total_hours,omitempty"`
	OvertimeHours  float64          `db:"overtime_hours" json:"overtime_hours"`
	Status         AttendanceStatus `db:"status" json:"status"`
	Location       *string          `db:"location" json:"location,omitempty"`
	Notes          string           `db:"notes" json:"notes,omitempty"`
	IsLate         bool             `db:"is_late" json:"is_late"`
	LateMinutes    int              `db:"late_minutes" json:"late_minutes"`

	Breaks []*Break `db:"-" json:"breaks,omitempty"`
}

// Break belongs to one attendance session. At most one open break
// (EndTime nil) per session.
type Break struct {
	Base
	AttendanceID    uuid.UUID  `db:"attendance_id" json:"attendance_id"`
	Type            BreakType  `db:"type" json:"type"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
}

type ClockInRequest struct {
	Location string `json:"location" validate:"max=255"`
	Notes    string `json:"notes" validate:"max=1000"`
}

type StartBreakRequest struct {
	Type BreakType `json:"type" binding:"required" validate:"required,oneof=lunch rest personal"`
}

type UpdateAttendanceSettingsRequest struct {
	WorkStartMinute    *int     `json:"work_start_minute" validate:"omitempty,min=0,max=1439"`
	WorkEndMinute      *int     `json:"work_end_minute" validate:"omitempty,min=0,max=1439"`
	GracePeriodMinutes *int     `json:"grace_period_minutes" validate:"omitempty,min=0"`
	OvertimeThreshold  *float64 `json:"overtime_threshold" validate:"omitempty,min=0"`
	RequireLocation    *bool    `json:"require_location"`
	AutoClockOutHours  *int     `json:"auto_clock_out_hours" validate:"omitempty,min=1"`
}

type AttendanceFilters struct {
	OrganizationID uuid.UUID
	BranchID       *uuid.UUID
	EmployeeID     *uuid.UUID
	Status         *AttendanceStatus
	StartDate      *time.Time
	EndDate        *time.Time
}
