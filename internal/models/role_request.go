package models

import (
	"time"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusDenied   RequestStatus = "Denied"
)

// Terminal reports whether no further transition is allowed out of the
// status. Approved and Denied are terminal; resubmission means a brand-new
// request row.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// RoleRequest is a user-initiated petition for additional role bits,
// decided by an Admin or Instructor. One row may carry several requested
// bits at once.
type RoleRequest struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	UserName  string        `json:"user_name" gorm:"not null;index;size:32"`
	Requested RoleSet       `json:"requested" gorm:"type:varchar(64);not null"`
	Status    RequestStatus `json:"status" gorm:"not null;default:Pending;index"`

	DecidedBy *string    `json:"decided_by" gorm:"size:32"`
	DecidedAt *time.Time `json:"decided_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserName;references:UserName"`
}

func (RoleRequest) TableName() string {
	return "role_requests"
}
