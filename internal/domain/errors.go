package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("unavailable")
)

// Token redemption failures. Both are unauthorized from the caller's point of view.
var (
	ErrTokenNotFound = fmt.Errorf("token not found: %w", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("token expired: %w", ErrUnauthorized)
)
