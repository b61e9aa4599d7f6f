package model

import (
	"time"

	"github.com/google/uuid"
)

// Days of week for weekly schedules, Monday first.
const (
	DayMonday    = 1
	DaySunday    = 7
	MinutesInDay = 1440
)

// AvailabilitySlot is one recurring working window for an artist:
// day-of-week (1=Monday..7=Sunday) plus start/end minutes of day.
// The whole set for an artist is replaced on every schedule update.
type AvailabilitySlot struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	ArtistID       uuid.UUID `db:"artist_id" json:"artist_id"`
	DayOfWeek      int       `db:"day_of_week" json:"day_of_week"`
	StartMinute    int       `db:"start_minute" json:"start_minute"`
	EndMinute      int       `db:"end_minute" json:"end_minute"`
}

// Blockout is an ad-hoc, non-recurring interval of unavailability.
type Blockout struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	ArtistID       uuid.UUID `db:"artist_id" json:"artist_id"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
	Reason         string    `db:"reason" json:"reason,omitempty"`
}

type ScheduleSlotInput struct {
	DayOfWeek   int `json:"day_of_week" binding:"required" validate:"required,min=1,max=7"`
	StartMinute int `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute   int `json:"end_minute" binding:"required" validate:"min=0,max=1439"`
}

type SetScheduleRequest struct {
	ArtistID uuid.UUID           `json:"artist_id" binding:"required" validate:"required"`
	Schedule []ScheduleSlotInput `json:"schedule" validate:"dive"`
}

type CreateBlockoutRequest struct {
	ArtistID  uuid.UUID `json:"artist_id" binding:"required" validate:"required"`
	StartTime time.Time `json:"start_time" binding:"required" validate:"required"`
	EndTime   time.Time `json:"end_time" binding:"required" validate:"required"`
	Reason    string    `json:"reason" validate:"max=500"`
}
