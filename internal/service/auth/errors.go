package auth

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrInvalidEmail       = apperr.Validation("invalid email")
	ErrPasswordTooShort   = apperr.Validation("password is too short")
	ErrFullNameRequired   = apperr.Validation("full_name is required")
	ErrEmailTaken         = apperr.Validation("email already registered")
	ErrInvalidCredentials = apperr.Unauthenticated("email or password is incorrect")
	ErrAccountLocked      = apperr.Unauthenticated("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = apperr.Unauthenticated("session not found or expired")
	ErrInvalidToken       = apperr.Unauthenticated("invalid or expired token")
	ErrUserNotFound       = apperr.NotFound("user not found")
)
