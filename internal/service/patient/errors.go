package patient

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrPatientNotFound = apperr.NotFound("patient not found")
	ErrMissingFields   = apperr.Validation("name and cpf are required")
	ErrInvalidCPF      = apperr.Validation("cpf must have between 11 and 14 characters")
	ErrInvalidEmail    = apperr.Validation("invalid email")
	ErrInvalidPhone    = apperr.Validation("invalid phone number")
	ErrInvalidBirth    = apperr.Validation("birth_date must be YYYY-MM-DD")
)
