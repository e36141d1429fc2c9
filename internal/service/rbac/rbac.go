package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

// Enforcer is the part of authorize.IAuthorization the gate needs.
type Enforcer interface {
	Enforce(ctx context.Context, role authorize.Role, domain authorize.Domain, object authorize.Resource, action authorize.Action) (bool, error)
}

type MembershipStore interface {
	Get(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserClinic, error)
}

type RoleStore interface {
	GetForUser(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserRole, error)
	Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.UserRole, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*repo.UserRoleWithProfile, error)
	Update(ctx context.Context, ur *repo.UserRole) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

type ProfessionalStore interface {
	Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

// AdminClaimer performs the atomic first-admin claim.
type AdminClaimer interface {
	ClaimClinicAdmin(ctx context.Context, clinicID, userID uuid.UUID) (*repo.UserRole, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason string) Decision { return Decision{Reason: reason} }

// UpdateRoleRequest is partial. ProfessionalID "" clears the link.
type UpdateRoleRequest struct {
	Role           *string `json:"role"`
	ProfessionalID *string `json:"professional_id"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Authorize decides whether scope may perform action on resource.
	Authorize(ctx context.Context, scope *reqctx.ClinicScope, resource authorize.Resource, action authorize.Action) (Decision, error)

	// Require is Authorize turned into an error: Forbidden with the deny
	// reason, or nil.
	Require(ctx context.Context, scope *reqctx.ClinicScope, resource authorize.Resource, action authorize.Action) error

	AssignSelfAsAdmin(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserRole, error)

	ListRoles(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.UserRoleWithProfile, error)
	UpdateRole(ctx context.Context, scope *reqctx.ClinicScope, roleID uuid.UUID, req UpdateRoleRequest) (*repo.UserRole, error)
	DeleteRole(ctx context.Context, scope *reqctx.ClinicScope, roleID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type rbacService struct {
	enforcer      Enforcer
	memberships   MembershipStore
	roles         RoleStore
	professionals ProfessionalStore
	claimer       AdminClaimer
	bus           events.Publisher
}

func New(
	enforcer Enforcer,
	memberships MembershipStore,
	roles RoleStore,
	professionals ProfessionalStore,
	claimer AdminClaimer,
	bus events.Publisher,
) Service {
	return &rbacService{
		enforcer:      enforcer,
		memberships:   memberships,
		roles:         roles,
		professionals: professionals,
		claimer:       claimer,
		bus:           bus,
	}
}

func (s *rbacService) Authorize(ctx context.Context, scope *reqctx.ClinicScope, resource authorize.Resource, action authorize.Action) (Decision, error) {
	if scope == nil || scope.UserID == uuid.Nil {
		return Decision{}, ErrNoScope
	}
	if !scope.IsMember {
		return Deny(ReasonNotMember), nil
	}
	if !scope.HasRole() {
		return Deny(ReasonNoRole), nil
	}

	subject := scope.Role.Subject()
	if subject == "" {
		return Deny(ReasonNoRole), nil
	}

	ok, err := s.enforcer.Enforce(ctx, subject, authorize.ClinicDomain(scope.ClinicID.String()), resource, action)
	if err != nil {
		return Decision{}, apperr.Store("enforce", err)
	}
	if !ok {
		return Deny(ReasonDenied), nil
	}
	return Allow(), nil
}

func (s *rbacService) Require(ctx context.Context, scope *reqctx.ClinicScope, resource authorize.Resource, action authorize.Action) error {
	d, err := s.Authorize(ctx, scope, resource, action)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}
	return nil
}

// AssignSelfAsAdmin lets a member of a clinic without roles become its
// first admin. Calling it again as that admin returns the existing role.
func (s *rbacService) AssignSelfAsAdmin(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserRole, error) {
	if userID == uuid.Nil {
		return nil, ErrNoScope
	}

	if _, err := s.memberships.Get(ctx, userID, clinicID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, apperr.Store("get membership", err)
	}

	role, err := s.claimer.ClaimClinicAdmin(ctx, clinicID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrAdminClaimed):
		existing, gerr := s.roles.GetForUser(ctx, userID, clinicID)
		if gerr == nil && existing.Role == authorize.ClinicRoleAdmin {
			return existing, nil
		}
		if gerr != nil && !errors.Is(gerr, repo.ErrNotFound) {
			return nil, apperr.Store("get role", gerr)
		}
		return nil, ErrAdminExists
	default:
		return nil, apperr.Store("claim admin", err)
	}

	slog.InfoContext(ctx, "rbac: clinic admin claimed", "clinic_id", clinicID, "user_id", userID)
	s.bus.Publish(ctx, events.Event{
		ClinicID: clinicID,
		Entity:   events.EntityUserRole,
		Op:       events.OpCreated,
		ID:       role.ID,
		ActorID:  userID,
	})
	return role, nil
}

func (s *rbacService) ListRoles(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.UserRoleWithProfile, error) {
	roles, err := s.roles.ListByClinic(ctx, scope.ClinicID)
	if err != nil {
		return nil, apperr.Store("list roles", err)
	}
	if roles == nil {
		roles = []*repo.UserRoleWithProfile{}
	}
	return roles, nil
}

func (s *rbacService) UpdateRole(ctx context.Context, scope *reqctx.ClinicScope, roleID uuid.UUID, req UpdateRoleRequest) (*repo.UserRole, error) {
	if req.Role == nil && req.ProfessionalID == nil {
		return nil, ErrEmptyUpdate
	}

	ur, err := s.getRole(ctx, scope.ClinicID, roleID)
	if err != nil {
		return nil, err
	}
	wasAdmin := ur.Role == authorize.ClinicRoleAdmin

	if req.Role != nil {
		role, err := authorize.ParseClinicRole(*req.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		ur.Role = role
	}

	if req.ProfessionalID != nil {
		if *req.ProfessionalID == "" {
			ur.ProfessionalID = nil
		} else {
			pid, err := uuid.Parse(*req.ProfessionalID)
			if err != nil {
				return nil, ErrInvalidProfessional
			}
			if err := s.checkProfessional(ctx, scope.ClinicID, pid); err != nil {
				return nil, err
			}
			ur.ProfessionalID = &pid
		}
	}

	// Only professional roles carry a professionals link.
	if ur.Role != authorize.ClinicRoleProfessional {
		ur.ProfessionalID = nil
	}

	if wasAdmin && ur.Role != authorize.ClinicRoleAdmin {
		if err := s.keepOneAdmin(ctx, scope.ClinicID, ur.ID); err != nil {
			return nil, err
		}
	}

	if err := s.roles.Update(ctx, ur); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, apperr.Store("update role", err)
	}

	s.publish(ctx, scope, events.OpUpdated, ur.ID)
	return ur, nil
}

func (s *rbacService) DeleteRole(ctx context.Context, scope *reqctx.ClinicScope, roleID uuid.UUID) error {
	ur, err := s.getRole(ctx, scope.ClinicID, roleID)
	if err != nil {
		return err
	}
	if ur.Role == authorize.ClinicRoleAdmin {
		if err := s.keepOneAdmin(ctx, scope.ClinicID, ur.ID); err != nil {
			return err
		}
	}

	if err := s.roles.Delete(ctx, scope.ClinicID, roleID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoleNotFound
		}
		return apperr.Store("delete role", err)
	}

	s.publish(ctx, scope, events.OpDeleted, roleID)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *rbacService) getRole(ctx context.Context, clinicID, id uuid.UUID) (*repo.UserRole, error) {
	ur, err := s.roles.Get(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, apperr.Store("get role", err)
	}
	return ur, nil
}

func (s *rbacService) checkProfessional(ctx context.Context, clinicID, id uuid.UUID) error {
	ok, err := s.professionals.Exists(ctx, clinicID, id)
	if err != nil {
		return apperr.Store("check professional", err)
	}
	if !ok {
		return ErrForeignProfessional
	}
	return nil
}

// keepOneAdmin fails when excluding roleID would leave the clinic without an
// admin.
func (s *rbacService) keepOneAdmin(ctx context.Context, clinicID, roleID uuid.UUID) error {
	roles, err := s.roles.ListByClinic(ctx, clinicID)
	if err != nil {
		return apperr.Store("list roles", err)
	}
	for _, r := range roles {
		if r.ID != roleID && r.Role == authorize.ClinicRoleAdmin {
			return nil
		}
	}
	return ErrLastAdmin
}

func (s *rbacService) publish(ctx context.Context, scope *reqctx.ClinicScope, op events.Op, id uuid.UUID) {
	s.bus.Publish(ctx, events.Event{
		ClinicID: scope.ClinicID,
		Entity:   events.EntityUserRole,
		Op:       op,
		ID:       id,
		ActorID:  scope.UserID,
	})
}
