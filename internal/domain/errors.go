package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrRoomNotFound           = fmt.Errorf("room %w", ErrNotFound)
	ErrRequestNotFound        = fmt.Errorf("matching request %w", ErrNotFound)
	ErrRequirementsNotFound   = fmt.Errorf("requirements %w", ErrNotFound)
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDuplicateRequest       = errors.New("an active request for this room already exists")
	ErrRoomNotSharing         = errors.New("room is not open for sharing")
	ErrVerificationRequired   = errors.New("identity verification required")
	ErrTransient              = errors.New("transient network error")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
)

// ValidationError is a client-correctable input problem tied to one field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
}
