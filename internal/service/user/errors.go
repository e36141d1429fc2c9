package user

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrNotAdmin            = apperr.Forbidden("Only clinic admins can create users")
	ErrMissingFields       = apperr.Validation("email, password, full_name, clinic_id and role are required")
	ErrInvalidEmail        = apperr.Validation("invalid email")
	ErrPasswordTooShort    = apperr.Validation("password is too short")
	ErrInvalidRole         = apperr.Validation("invalid role")
	ErrInvalidClinic       = apperr.Validation("invalid clinic_id")
	ErrInvalidProfessional = apperr.Validation("invalid professional_id")
	ErrForeignProfessional = apperr.CrossTenant("professional does not belong to this clinic")
	ErrEmailTaken          = apperr.Validation("email already registered")
)
