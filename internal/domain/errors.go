package domain

import "errors"

// Error kinds surfaced to callers. Wrap them with fmt.Errorf("%w: ...") to add a message.
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)
