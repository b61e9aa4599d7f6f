package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// BlockingStatuses are the statuses that occupy the artist's
// calendar. Cancelled and no-show appointments do not.
var BlockingStatuses = []AppointmentStatus{
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
}

func (s AppointmentStatus) IsBlocking() bool {
	for _, blocking := range BlockingStatuses {
		if s == blocking {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	OrganizationID uuid.UUID         `db:"organization_id" json:"organization_id"`
	BranchID       uuid.UUID         `db:"branch_id" json:"branch_id"`
	ArtistID       uuid.UUID         `db:"artist_id" json:"artist_id"`
	CustomerID     uuid.UUID         `db:"customer_id" json:"customer_id"`
	ServiceID      uuid.UUID         `db:"service_id" json:"service_id"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	Price          float64           `db:"price" json:"price"`
	Notes          string            `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	ArtistID   uuid.UUID `json:"artist_id" binding:"required" validate:"required"`
	CustomerID uuid.UUID `json:"customer_id" binding:"required" validate:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required" validate:"required"`
	StartTime  time.Time `json:"start_time" binding:"required" validate:"required"`
	Notes      string    `json:"notes" validate:"max=1000"`
}

type UpdateAppointmentRequest struct {
	Status *AppointmentStatus `json:"status"`
	Notes  *string            `json:"notes"`
}

type FindSlotsRequest struct {
	ServiceID   uuid.UUID  `form:"service_id" binding:"required" validate:"required"`
	ArtistID    *uuid.UUID `form:"artist_id"`
	SearchStart time.Time  `form:"start_date" time_format:"2006-01-02" binding:"required" validate:"required"`
	SearchEnd   time.Time  `form:"end_date" time_format:"2006-01-02" binding:"required" validate:"required"`
}

type AppointmentFilters struct {
	OrganizationID uuid.UUID
	BranchID       *uuid.UUID
	ArtistID       *uuid.UUID
	CustomerID     *uuid.UUID
	Status         *AppointmentStatus
	StartDate      *time.Time
	EndDate        *time.Time
}
