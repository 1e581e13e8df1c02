package service

import (
	"errors"

	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown userid, wrong password and
	// inactive accounts alike
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers expired, forged, malformed and orphaned tokens
	ErrInvalidToken = errors.New("could not validate credentials")
	ErrUserIDTaken  = errors.New("userid already exists")

	ErrUserNotFound   = repository.ErrUserNotFound
	ErrRecordNotFound = repository.ErrDailyRecordNotFound

	ErrAuthorizationDenied = policy.ErrAuthorizationDenied
)

// ValidationError reports malformed input that never reached storage
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// actorID returns the audit actor reference for an identity; nil means the
// action was initiated by the system
func actorID(actor *policy.Identity) *uint {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

var (
	errUnknownAction = errors.New("unknown audit action")
	errNegativeLimit = errors.New("must not be negative")
	errRequired      = errors.New("is required")
)
