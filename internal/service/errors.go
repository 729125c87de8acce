package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the services. Handlers translate these into
// HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfSubscribe      = errors.New("cannot subscribe to yourself")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries a field-level message for a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
