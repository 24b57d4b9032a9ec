package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campus-hub/helpdesk-service/internal/models"
)

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates rule failures and implements error.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts go-playground validation output.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	var errs ValidationErrors
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return errs
	}
	return ValidationErrors{{Field: "", Message: err.Error(), Rule: "unknown"}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "role_name":
		return "must be one of admin, student, reviewer, instructor, staff"
	case "invite_code":
		return "must be a 4-character alphanumeric code"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

var inviteCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Validator wraps go-playground/validator with the platform's custom tags.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRoleSet([]string{fl.Field().String()})
		return err == nil
	})
	_ = validate.RegisterValidation("invite_code", func(fl validator.FieldLevel) bool {
		return inviteCodePattern.MatchString(fl.Field().String())
	})

	return &Validator{
		validate: validate,
		business: newBusinessValidator(validate),
	}
}

// Validate applies struct tag validation.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// GetBusinessValidator exposes the business rule layer.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
