package auth

import (
	"errors"

	"bikeworkshop/internal/pkg/apperr"
)

var (
	// ErrInvalidCredentials is answered with 401 by the handler.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailAlreadyExists = apperr.Conflict("This email is already registered").WithCode("EMAIL_EXISTS")
	ErrUserNotFound       = apperr.NotFound("User not found")
)
