package domain

import "errors"

// Sentinel errors for the service layer. Transport layers map these to
// status codes with errors.Is; services wrap them with context via %w.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
)
