package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrEmailTaken         = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", ErrUnauthorized)

	ErrPokemonExists   = fmt.Errorf("pokemon already exists: %w", ErrConflict)
	ErrPokemonNotFound = fmt.Errorf("pokemon not found: %w", ErrNotFound)
)
