package domain

import "errors"

// Sentinel errors shared by repositories, services and controllers.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request is well-formed but not acceptable (e.g. a capacity below 1).
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRole  = errors.New("invalid participant role")

	// ErrInvalidInvitation covers unknown, inactive, used and expired codes alike
	// so callers cannot tell which one they hit.
	ErrInvalidInvitation = errors.New("invalid or expired invitation")
	ErrCapacityExceeded  = errors.New("no seats available")
	ErrAlreadyMember     = errors.New("already a participant of this event")
	ErrPrivateEvent      = errors.New("event is private, an invitation code is required")

	// ErrDuplicateCode is returned by the invitation repository when the generated code is already taken.
	ErrDuplicateCode = errors.New("invitation code already exists")
)
