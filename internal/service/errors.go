package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Callers match them with errors.Is;
// details are appended with fmt.Errorf("%w: ...").
var (
	ErrValidation          = errors.New("validation failed")
	ErrTooLarge            = errors.New("file too large")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = errors.New("not found or not owned")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrInvalidShareLink    = errors.New("invalid share link")
	ErrShareLinkExpired    = errors.New("share link expired")
	ErrStorageWriteFailed  = errors.New("storage write failed")
	ErrStorageDeleteFailed = errors.New("storage delete failed")
	ErrStorageReadFailed   = errors.New("storage read failed")
)

// Reasons carried by UnauthorizedError.
const (
	ReasonMissingToken    = "missing_token"
	ReasonInvalidScheme   = "invalid_scheme"
	ReasonInvalidToken    = "invalid_token"
	ReasonUnknownSubject  = "unknown_subject"
	ReasonAccountDisabled = "account_disabled"
)

// UnauthorizedError is returned by the access gate. It matches ErrUnauthorized.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

func unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}
