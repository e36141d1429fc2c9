package reqctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

// ClinicScope is the resolved (user, clinic, role) tuple every clinic-scoped
// operation runs under. It is built once per request by the scope middleware
// and passed explicitly to services that need more than the clinic id.
type ClinicScope struct {
	UserID   uuid.UUID
	ClinicID uuid.UUID

	// Role is empty when the user is a member without an assigned role.
	Role authorize.ClinicRole

	// ProfessionalID links a professional role to its professionals row.
	ProfessionalID *uuid.UUID

	IsMember bool
	IsMaster bool

	Credential CredentialKind
}

func (s *ClinicScope) HasRole() bool { return s != nil && s.Role != "" }

func (s *ClinicScope) IsAdmin() bool { return s != nil && s.Role == authorize.ClinicRoleAdmin }

// OwnProfessional reports whether the caller is limited to a single
// professional's records and which one. A professional role with no linked
// professional is limited to none: restricted is true and id is nil.
func (s *ClinicScope) OwnProfessional() (id *uuid.UUID, restricted bool) {
	if s == nil || s.Role != authorize.ClinicRoleProfessional {
		return nil, false
	}
	return s.ProfessionalID, true
}

func WithClinicScope(ctx context.Context, s *ClinicScope) context.Context {
	return context.WithValue(ctx, keyClinicScope, s)
}

func ClinicScopeFromContext(ctx context.Context) (*ClinicScope, bool) {
	s, ok := ctx.Value(keyClinicScope).(*ClinicScope)
	return s, ok && s != nil
}
