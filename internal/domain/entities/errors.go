package entities

import (
	"errors"
	"fmt"
)

// Domain errors. Services return these (usually wrapped) so callers can branch
// with errors.Is regardless of which layer produced the failure.
var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidAssetKind       = errors.New("invalid asset kind")
	ErrUnknownMember          = errors.New("unknown member")
	ErrMemberBirthDateMissing = errors.New("member birth date missing")
	ErrInvalidAge             = errors.New("invalid age")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrPersistenceFailure     = errors.New("persistence failure")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("identifier already in use")
	ErrSubmitInFlight         = errors.New("submit already in flight")
	ErrInvalidTransition      = errors.New("invalid workflow transition")
)

// FieldError ties a domain error to the input field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewFieldError creates a FieldError. A nil kind defaults to ErrValidation.
func NewFieldError(field string, kind error, format string, args ...any) *FieldError {
	if kind == nil {
		kind = ErrValidation
	}
	return &FieldError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Err:     kind,
	}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// AsFieldError extracts a FieldError from an error chain.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
