package apitoken

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrNameRequired  = apperr.Validation("Token name is required")
	ErrTokenNotFound = apperr.NotFound("token not found")

	// ErrInvalidToken covers malformed, unknown, revoked and expired tokens
	// alike.
	ErrInvalidToken = apperr.Unauthenticated("Invalid token")
)
