package model

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleManager      UserRole = "manager"
	UserRoleReceptionist UserRole = "receptionist"
	UserRoleCashier      UserRole = "cashier"
	UserRoleArtist       UserRole = "artist"
	UserRoleCustomer     UserRole = "customer"
)

// StaffRoles are the roles allowed to clock in.
var StaffRoles = []UserRole{
	UserRoleArtist,
	UserRoleReceptionist,
	UserRoleCashier,
	UserRoleManager,
	UserRoleAdmin,
}

func (r UserRole) IsStaff() bool {
	for _, role := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the read model for staff and customers. Account management
// lives in a separate service; this backend only reads org, branch and
// role for scoping.
type User struct {
	Base
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	BranchID       *uuid.UUID `db:"branch_id" json:"branch_id,omitempty"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Role           UserRole   `db:"role" json:"role"`
}

// InBranch reports whether the user is assigned to the given branch.
func (u *User) InBranch(branchID uuid.UUID) bool {
	return u.BranchID != nil && *u.BranchID == branchID
}
