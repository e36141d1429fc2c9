package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/auth"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/email"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/password"
)

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type UserStore interface {
	Create(ctx context.Context, u *repo.User) error
	CreateProfile(ctx context.Context, p *repo.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MembershipStore interface {
	Create(ctx context.Context, m *repo.UserClinic) error
}

type RoleStore interface {
	Create(ctx context.Context, ur *repo.UserRole) error
}

type ProfessionalStore interface {
	Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

type ClinicStore interface {
	Get(ctx context.Context, id uuid.UUID) (*repo.Clinic, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateClinicUserRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FullName       string  `json:"full_name"`
	ClinicID       string  `json:"clinic_id"`
	Role           string  `json:"role"`
	ProfessionalID *string `json:"professional_id"`
}

type CreatedUser struct {
	ID      uuid.UUID      `json:"id"`
	Email   string         `json:"email"`
	Profile CreatedProfile `json:"profile"`
}

type CreatedProfile struct {
	FullName string `json:"full_name"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// CreateClinicUser provisions a login for a new staff member of the
	// actor's clinic. actor must be the clinic admin of req.ClinicID.
	CreateClinicUser(ctx context.Context, actor *reqctx.ClinicScope, req CreateClinicUserRequest) (*CreatedUser, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type userService struct {
	users         UserStore
	memberships   MembershipStore
	roles         RoleStore
	professionals ProfessionalStore
	clinics       ClinicStore
	hasher        *password.Hasher
	mailer        email.Sender
	mailCfg       email.Config
	bus           events.Publisher
}

type Deps struct {
	Users         UserStore
	Memberships   MembershipStore
	Roles         RoleStore
	Professionals ProfessionalStore
	Clinics       ClinicStore
	Hasher        *password.Hasher

	// Mailer is optional; nil or a disabled config skips the welcome mail.
	Mailer  email.Sender
	MailCfg email.Config

	Bus events.Publisher
}

func New(d Deps) Service {
	return &userService{
		users:         d.Users,
		memberships:   d.Memberships,
		roles:         d.Roles,
		professionals: d.Professionals,
		clinics:       d.Clinics,
		hasher:        d.Hasher,
		mailer:        d.Mailer,
		mailCfg:       d.MailCfg,
		bus:           d.Bus,
	}
}

func (s *userService) CreateClinicUser(ctx context.Context, actor *reqctx.ClinicScope, req CreateClinicUserRequest) (*CreatedUser, error) {
	fullName := strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || fullName == "" || req.ClinicID == "" || req.Role == "" {
		return nil, ErrMissingFields
	}

	clinicID, err := uuid.Parse(strings.TrimSpace(req.ClinicID))
	if err != nil {
		return nil, ErrInvalidClinic
	}
	if actor == nil || actor.ClinicID != clinicID || !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	emailAddr, err := auth.ParseEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	if err := s.hasher.CheckLength(req.Password); err != nil {
		return nil, ErrPasswordTooShort
	}
	role, err := authorize.ParseClinicRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	var professionalID *uuid.UUID
	if req.ProfessionalID != nil && strings.TrimSpace(*req.ProfessionalID) != "" {
		pid, err := uuid.Parse(strings.TrimSpace(*req.ProfessionalID))
		if err != nil {
			return nil, ErrInvalidProfessional
		}
		ok, err := s.professionals.Exists(ctx, clinicID, pid)
		if err != nil {
			return nil, apperr.Store("check professional", err)
		}
		if !ok {
			return nil, ErrForeignProfessional
		}
		professionalID = &pid
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &repo.User{Email: emailAddr, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Store("create user", err)
	}

	if err := s.attach(ctx, actor, u.ID, fullName, role, professionalID); err != nil {
		return nil, s.compensate(ctx, u.ID, err)
	}

	slog.InfoContext(ctx, "user: clinic user created",
		"user_id", u.ID, "clinic_id", clinicID, "role", role, "created_by", actor.UserID)
	s.bus.Publish(ctx, events.Event{
		ClinicID: clinicID,
		Entity:   events.EntityUser,
		Op:       events.OpCreated,
		ID:       u.ID,
		ActorID:  actor.UserID,
	})
	s.sendWelcome(ctx, clinicID, u.Email, fullName, role)

	return &CreatedUser{ID: u.ID, Email: u.Email, Profile: CreatedProfile{FullName: fullName}}, nil
}

// attach writes the profile, the membership and the role of a new user.
func (s *userService) attach(ctx context.Context, actor *reqctx.ClinicScope, userID uuid.UUID, fullName string, role authorize.ClinicRole, professionalID *uuid.UUID) error {
	createdBy := actor.UserID
	if err := s.users.CreateProfile(ctx, &repo.Profile{UserID: userID, FullName: fullName, CreatedBy: &createdBy}); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	membership := &repo.UserClinic{
		UserID:   userID,
		ClinicID: actor.ClinicID,
		Role:     string(role),
		RoleType: repo.RoleTypeMember,
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}

	if role != authorize.ClinicRoleProfessional {
		professionalID = nil
	}
	ur := &repo.UserRole{
		UserID:         userID,
		ClinicID:       actor.ClinicID,
		Role:           role,
		ProfessionalID: professionalID,
	}
	if err := s.roles.Create(ctx, ur); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// compensate deletes a half-provisioned user. Its profile, membership and
// role rows cascade.
func (s *userService) compensate(ctx context.Context, userID uuid.UUID, cause error) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "user: orphaned user left behind", "user_id", userID, "err", err)
		return apperr.Store("provision user", errors.Join(cause, err))
	}
	return apperr.Store("provision user", cause)
}

func (s *userService) sendWelcome(ctx context.Context, clinicID uuid.UUID, to, fullName string, role authorize.ClinicRole) {
	if s.mailer == nil || !s.mailCfg.Enabled {
		return
	}

	var clinicName string
	if c, err := s.clinics.Get(ctx, clinicID); err == nil {
		clinicName = c.Name
	}

	msg := email.BuildClinicUserWelcomeEmail(email.WelcomeEmailData{
		FullName:   fullName,
		Email:      to,
		ClinicName: clinicName,
		Role:       string(role),
		AppName:    s.mailCfg.Brand.AppName,
		BaseURL:    s.mailCfg.Brand.BaseURL,
		Color:      s.mailCfg.Brand.Color,
	})
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.WarnContext(ctx, "user: welcome email failed", "clinic_id", clinicID, "err", err)
	}
}
