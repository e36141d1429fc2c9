package rbac

import "github.com/Alijeyrad/clinicflow_backend/pkg/apperr"

const (
	ReasonNotMember = "not a member of this clinic"
	ReasonNoRole    = "no role assigned in this clinic"
	ReasonDenied    = "insufficient permissions"
)

var (
	ErrNoScope             = apperr.Unauthenticated("missing clinic scope")
	ErrNotMember           = apperr.Forbidden(ReasonNotMember)
	ErrAdminExists         = apperr.Forbidden("admin already exists")
	ErrLastAdmin           = apperr.Forbidden("clinic must keep at least one admin")
	ErrRoleNotFound        = apperr.NotFound("role not found")
	ErrInvalidRole         = apperr.Validation("invalid role")
	ErrInvalidProfessional = apperr.Validation("invalid professional_id")
	ErrForeignProfessional = apperr.CrossTenant("professional does not belong to this clinic")
	ErrEmptyUpdate         = apperr.Validation("nothing to update")
)
