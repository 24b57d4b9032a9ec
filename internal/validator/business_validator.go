package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation beyond struct tags.
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(validate *validator.Validate) *BusinessValidator {
	return &BusinessValidator{validate: validate}
}

// Validate validates struct tags for any request.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateInvitationIssue checks issue-time rules: deadline must not
// already lie in the past (whole-date comparison; issuing for today is
// allowed).
func (bv *BusinessValidator) ValidateInvitationIssue(req *InvitationIssueRequest) ValidationErrors {
	errors := bv.Validate(req)

	today := time.Now().Truncate(24 * time.Hour)
	if !req.Deadline.IsZero() && req.Deadline.Before(today) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "deadline must not be in the past",
			Value:   req.Deadline,
			Rule:    "business_logic",
		})
	}
	return errors
}

// ValidateRoleRequestSubmit checks submission rules. The admin role is not
// requestable through the self-service workflow.
func (bv *BusinessValidator) ValidateRoleRequestSubmit(req *RoleRequestSubmitRequest) ValidationErrors {
	errors := bv.Validate(req)

	for _, role := range req.Roles {
		if role == "admin" {
			errors = append(errors, ValidationError{
				Field:   "roles",
				Message: "the admin role cannot be requested",
				Value:   role,
				Rule:    "business_logic",
			})
		}
	}
	return errors
}

// ValidateTrustAdd checks trust edge rules: a student cannot trust
// themselves. Weight is deliberately unvalidated; it is a ranking hint.
func (bv *BusinessValidator) ValidateTrustAdd(student string, req *TrustAddRequest) ValidationErrors {
	errors := bv.Validate(req)

	if req.ReviewerUserName == student {
		errors = append(errors, ValidationError{
			Field:   "reviewer_user_name",
			Message: "a student cannot trust themselves",
			Value:   req.ReviewerUserName,
			Rule:    "business_logic",
		})
	}
	return errors
}
