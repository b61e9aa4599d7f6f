package model

import (
	"github.com/google/uuid"
)

// Service is a bookable salon service. Duration drives appointment end
// times; BasePrice is snapshotted onto the appointment at booking.
type Service struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	BranchID       uuid.UUID `db:"branch_id" json:"branch_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Duration       int       `db:"duration" json:"duration"` // in minutes
	BasePrice      float64   `db:"base_price" json:"base_price"`
	Status         string    `db:"status" json:"status"`
}
