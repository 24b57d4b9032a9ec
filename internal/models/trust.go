package models

import "time"

// TrustedReviewer is a student's directed, weighted endorsement of a
// reviewer. Weight is a ranking hint for the visibility resolver, not a
// validated quantity; it is unbounded on purpose.
type TrustedReviewer struct {
	StudentUserName  string `json:"student_user_name" gorm:"primaryKey;size:32"`
	ReviewerUserName string `json:"reviewer_user_name" gorm:"primaryKey;size:32"`
	Weight           int    `json:"weight" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student  User `json:"-" gorm:"foreignKey:StudentUserName;references:UserName"`
	Reviewer User `json:"-" gorm:"foreignKey:ReviewerUserName;references:UserName"`
}

func (TrustedReviewer) TableName() string {
	return "trusted_reviewers"
}
