package models

import (
	"time"

	"gorm.io/datatypes"
)

// InvitationCode is a one-time registration token binding an email to a
// proposed role set and a deadline. The four-character code space is a
// deliberate product decision (codes are read out loud in class); issuing
// retries on collision.
type InvitationCode struct {
	Code     string         `json:"code" gorm:"primaryKey;size:4"`
	Email    string         `json:"email" gorm:"index;not null;size:255"`
	Roles    RoleSet        `json:"roles" gorm:"type:varchar(64);not null;default:''"`
	IsUsed   bool           `json:"is_used" gorm:"not null;default:false"`
	Deadline datatypes.Date `json:"deadline" gorm:"not null"`

	IssuedBy  string    `json:"issued_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InvitationCode) TableName() string {
	return "invitation_codes"
}

// ExpiresBefore reports whether the stored deadline falls strictly before
// the given day. Deadlines are whole dates; a code issued for today is
// usable through the end of today.
func (c *InvitationCode) ExpiresBefore(day time.Time) bool {
	deadline := time.Time(c.Deadline)
	y1, m1, d1 := deadline.Date()
	y2, m2, d2 := day.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}
