package membership

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

var (
	ErrNoUser            = apperr.Unauthenticated("missing user identity")
	ErrNotMember         = apperr.Forbidden("not a member of this clinic")
	ErrNoClinic          = apperr.Forbidden("no clinic membership; create a clinic first")
	ErrClinicNotFound    = apperr.NotFound("clinic not found")
	ErrClinicNameMissing = apperr.Validation("name is required")
)
