// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared by all services. Handlers map them to HTTP statuses
// with errors.Is; services wrap them with context via fmt.Errorf("...: %w").
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)
