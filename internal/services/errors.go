package services

import (
	"errors"
	"fmt"
)

// Not-found sentinels. These are business outcomes ("no"), distinct from
// wrapped storage failures ("failed"); callers branch with errors.Is.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvitationNotFound  = errors.New("invitation code not found")
	ErrRoleRequestNotFound = errors.New("role request not found")
	ErrTrustEdgeNotFound   = errors.New("trust edge not found")
	ErrContentNotFound     = errors.New("content item not found")
)

// Business rule denials.
var (
	ErrInvitationConsumed    = errors.New("invitation code already used")
	ErrInvitationExpired     = errors.New("invitation code expired")
	ErrUserNameTaken         = errors.New("user name already taken")
	ErrDuplicateRoleRequest  = errors.New("a pending or approved request already covers the requested roles")
	ErrRequestAlreadyDecided = errors.New("role request already decided")
	ErrInvalidCredentials    = errors.New("invalid user name or password")
)

// PermissionError is returned when a caller lacks the role required for an
// operation.
type PermissionError struct {
	UserName   string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s",
		e.UserName, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userName string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserName:   userName,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a permission denial.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsDenied reports whether err is a business-rule outcome rather than a
// storage failure: not-found sentinels, rule denials, permission errors,
// and validation errors all count.
func IsDenied(err error) bool {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvitationNotFound),
		errors.Is(err, ErrRoleRequestNotFound),
		errors.Is(err, ErrTrustEdgeNotFound),
		errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrInvitationConsumed),
		errors.Is(err, ErrInvitationExpired),
		errors.Is(err, ErrUserNameTaken),
		errors.Is(err, ErrDuplicateRoleRequest),
		errors.Is(err, ErrRequestAlreadyDecided),
		errors.Is(err, ErrInvalidCredentials):
		return true
	}
	return IsPermissionError(err)
}
