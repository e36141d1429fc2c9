package membership

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type ClinicStore interface {
	Create(ctx context.Context, c *repo.Clinic) error
	Get(ctx context.Context, id uuid.UUID) (*repo.Clinic, error)
	Update(ctx context.Context, c *repo.Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MembershipStore interface {
	Create(ctx context.Context, m *repo.UserClinic) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*repo.ClinicMembership, error)
	Get(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserClinic, error)
}

type RoleStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*repo.UserRole, error)
	GetForUser(ctx context.Context, userID, clinicID uuid.UUID) (*repo.UserRole, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Membership is everything the UI needs to pick a clinic.
type Membership struct {
	Clinics       []*repo.Clinic          `json:"clinics"`
	Memberships   []*repo.ClinicMembership `json:"memberships"`
	Roles         []*repo.UserRole        `json:"roles"`
	CurrentClinic *repo.Clinic            `json:"current_clinic"`
}

type CreateClinicRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

type UpdateClinicRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Resolve loads the user's clinics and roles and picks the current
	// clinic: the preferred one when given, else the oldest membership.
	Resolve(ctx context.Context, userID uuid.UUID, preferred *uuid.UUID) (*Membership, error)

	// Scope builds the request scope for p. API tokens are pinned to their
	// clinic and ignore preferred.
	Scope(ctx context.Context, p *reqctx.Principal, preferred *uuid.UUID) (*reqctx.ClinicScope, error)

	CreateClinic(ctx context.Context, userID uuid.UUID, req CreateClinicRequest) (*repo.Clinic, error)
	GetClinic(ctx context.Context, clinicID uuid.UUID) (*repo.Clinic, error)
	UpdateClinic(ctx context.Context, scope *reqctx.ClinicScope, req UpdateClinicRequest) (*repo.Clinic, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type membershipService struct {
	clinics     ClinicStore
	memberships MembershipStore
	roles       RoleStore
	bus         events.Publisher
}

func New(clinics ClinicStore, memberships MembershipStore, roles RoleStore, bus events.Publisher) Service {
	return &membershipService{clinics: clinics, memberships: memberships, roles: roles, bus: bus}
}

func (s *membershipService) Resolve(ctx context.Context, userID uuid.UUID, preferred *uuid.UUID) (*Membership, error) {
	if userID == uuid.Nil {
		return nil, ErrNoUser
	}

	ms, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("list memberships", err)
	}
	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("list roles", err)
	}

	out := &Membership{
		Clinics:     make([]*repo.Clinic, 0, len(ms)),
		Memberships: ms,
		Roles:       roles,
	}
	if out.Memberships == nil {
		out.Memberships = []*repo.ClinicMembership{}
	}
	if out.Roles == nil {
		out.Roles = []*repo.UserRole{}
	}
	for _, m := range ms {
		c := m.Clinic
		out.Clinics = append(out.Clinics, &c)
	}

	if len(out.Clinics) == 0 {
		return out, nil
	}
	if preferred == nil {
		out.CurrentClinic = out.Clinics[0]
		return out, nil
	}
	for _, c := range out.Clinics {
		if c.ID == *preferred {
			out.CurrentClinic = c
			return out, nil
		}
	}
	return nil, ErrNotMember
}

func (s *membershipService) Scope(ctx context.Context, p *reqctx.Principal, preferred *uuid.UUID) (*reqctx.ClinicScope, error) {
	if p == nil || p.UserID == uuid.Nil {
		return nil, ErrNoUser
	}

	var clinicID uuid.UUID
	switch {
	case p.TokenClinicID != nil:
		clinicID = *p.TokenClinicID
	case preferred != nil:
		clinicID = *preferred
	default:
		ms, err := s.memberships.ListByUser(ctx, p.UserID)
		if err != nil {
			return nil, apperr.Store("list memberships", err)
		}
		if len(ms) == 0 {
			return nil, ErrNoClinic
		}
		clinicID = ms[0].ClinicID
	}

	scope := &reqctx.ClinicScope{
		UserID:     p.UserID,
		ClinicID:   clinicID,
		Credential: p.Credential,
	}

	m, err := s.memberships.Get(ctx, p.UserID, clinicID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return scope, nil
	case err != nil:
		return nil, apperr.Store("get membership", err)
	}
	scope.IsMember = true
	scope.IsMaster = m.IsMaster()

	role, err := s.roles.GetForUser(ctx, p.UserID, clinicID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return scope, nil
	case err != nil:
		return nil, apperr.Store("get role", err)
	}
	scope.Role = role.Role
	scope.ProfessionalID = role.ProfessionalID
	return scope, nil
}

// CreateClinic inserts the clinic and then the creator's master membership.
// A failed membership insert deletes the clinic again; if that delete also
// fails both errors are returned and the orphan is logged.
func (s *membershipService) CreateClinic(ctx context.Context, userID uuid.UUID, req CreateClinicRequest) (*repo.Clinic, error) {
	if userID == uuid.Nil {
		return nil, ErrNoUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrClinicNameMissing
	}

	clinic := &repo.Clinic{Name: name, Address: trimmed(req.Address)}
	if err := s.clinics.Create(ctx, clinic); err != nil {
		return nil, apperr.Store("create clinic", err)
	}

	membership := &repo.UserClinic{
		UserID:   userID,
		ClinicID: clinic.ID,
		Role:     "admin",
		RoleType: repo.RoleTypeMaster,
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		if cerr := s.clinics.Delete(ctx, clinic.ID); cerr != nil {
			slog.ErrorContext(ctx, "membership: orphaned clinic left behind",
				"clinic_id", clinic.ID, "user_id", userID, "err", cerr)
			return nil, apperr.Store("create clinic membership", errors.Join(err, cerr))
		}
		return nil, apperr.Store("create clinic membership", err)
	}

	s.bus.Publish(ctx, events.Event{
		ClinicID: clinic.ID,
		Entity:   events.EntityClinic,
		Op:       events.OpCreated,
		ID:       clinic.ID,
		ActorID:  userID,
	})
	return clinic, nil
}

func (s *membershipService) GetClinic(ctx context.Context, clinicID uuid.UUID) (*repo.Clinic, error) {
	c, err := s.clinics.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClinicNotFound
		}
		return nil, apperr.Store("get clinic", err)
	}
	return c, nil
}

func (s *membershipService) UpdateClinic(ctx context.Context, scope *reqctx.ClinicScope, req UpdateClinicRequest) (*repo.Clinic, error) {
	c, err := s.GetClinic(ctx, scope.ClinicID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrClinicNameMissing
		}
		c.Name = name
	}
	if req.Address != nil {
		c.Address = trimmed(req.Address)
	}

	if err := s.clinics.Update(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClinicNotFound
		}
		return nil, apperr.Store("update clinic", err)
	}

	s.bus.Publish(ctx, events.Event{
		ClinicID: c.ID,
		Entity:   events.EntityClinic,
		Op:       events.OpUpdated,
		ID:       c.ID,
		ActorID:  scope.UserID,
	})
	return c, nil
}

// trimmed returns nil for a missing or blank value.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
