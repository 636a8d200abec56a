package models

import "errors"

// Sentinel errors shared by every storage implementation. Storages wrap them
// with fmt.Errorf("...: %w", ...) so handlers can map them to HTTP statuses
// with errors.Is while keeping the human-readable message.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid input")
	ErrConflict   = errors.New("conflict")
)
