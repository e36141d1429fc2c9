package professional

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrProfessionalNotFound = apperr.NotFound("professional not found")
	ErrMissingFields        = apperr.Validation("name and specialty are required")
	ErrInvalidColor         = apperr.Validation("color must be a #RRGGBB hex value")
	ErrEmptyUpdate          = apperr.Validation("nothing to update")
)
