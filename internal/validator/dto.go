package validator

import "time"

// InvitationIssueRequest creates a one-time registration code.
type InvitationIssueRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Roles    []string  `json:"roles" validate:"required,min=1,dive,role_name"`
	Deadline time.Time `json:"deadline" validate:"required"`
}

// RegisterRequest consumes an invitation code and creates the account.
// Inputs are assumed syntactically validated here; uniqueness and code
// state are business rules checked by the services.
type RegisterRequest struct {
	Code      string `json:"code" validate:"required,invite_code"`
	UserName  string `json:"user_name" validate:"required,min=4,max=16,alphanum"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RoleRequestSubmitRequest petitions for additional role bits.
type RoleRequestSubmitRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,role_name"`
}

// TrustAddRequest creates or re-weights a trust edge.
type TrustAddRequest struct {
	ReviewerUserName string `json:"reviewer_user_name" validate:"required,min=4,max=16"`
	Weight           int    `json:"weight"`
}

// FlagRequest marks a content item for staff attention.
type FlagRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Content creation requests. Prose bodies are stored as-is; display
// formatting belongs to the presentation layer.

type QuestionCreateRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
	Body  string `json:"body" validate:"required,min=1"`
}

type AnswerCreateRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Body       string `json:"body" validate:"required,min=1"`
}

type ReplyCreateRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Body       string `json:"body" validate:"required,min=1"`
}

type ReviewCreateRequest struct {
	AnswerID uint   `json:"answer_id" validate:"required"`
	Body     string `json:"body" validate:"required,min=1"`
}
