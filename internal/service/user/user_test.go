package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/email"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/password"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, u *repo.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUsers) CreateProfile(ctx context.Context, p *repo.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockMemberships struct{ mock.Mock }

func (m *mockMemberships) Create(ctx context.Context, uc *repo.UserClinic) error {
	return m.Called(ctx, uc).Error(0)
}

type mockRoles struct{ mock.Mock }

func (m *mockRoles) Create(ctx context.Context, ur *repo.UserRole) error {
	return m.Called(ctx, ur).Error(0)
}

type mockProfessionals struct{ mock.Mock }

func (m *mockProfessionals) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, clinicID, id)
	return args.Bool(0), args.Error(1)
}

type mockClinics struct{ mock.Mock }

func (m *mockClinics) Get(ctx context.Context, id uuid.UUID) (*repo.Clinic, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*repo.Clinic)
	return c, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) { r.events = append(r.events, e) }

type fixture struct {
	users         *mockUsers
	memberships   *mockMemberships
	roles         *mockRoles
	professionals *mockProfessionals
	clinics       *mockClinics
	mailer        *mockMailer
	bus           *recorder
	svc           Service
}

func newFixture(mailEnabled bool) *fixture {
	f := &fixture{
		users:         &mockUsers{},
		memberships:   &mockMemberships{},
		roles:         &mockRoles{},
		professionals: &mockProfessionals{},
		clinics:       &mockClinics{},
		mailer:        &mockMailer{},
		bus:           &recorder{},
	}
	cfg := email.DefaultConfig()
	cfg.Enabled = mailEnabled
	f.svc = New(Deps{
		Users:         f.users,
		Memberships:   f.memberships,
		Roles:         f.roles,
		Professionals: f.professionals,
		Clinics:       f.clinics,
		Hasher:        password.NewHasher(password.Config{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}),
		Mailer:        f.mailer,
		MailCfg:       cfg,
		Bus:           f.bus,
	})
	return f
}

func adminScope() *reqctx.ClinicScope {
	return &reqctx.ClinicScope{
		UserID:   uuid.New(),
		ClinicID: uuid.New(),
		Role:     authorize.ClinicRoleAdmin,
		IsMember: true,
	}
}

func validRequest(clinicID uuid.UUID) CreateClinicUserRequest {
	return CreateClinicUserRequest{
		Email:    "Recep@Clinic.com",
		Password: "secret123",
		FullName: " Maria Souza ",
		ClinicID: clinicID.String(),
		Role:     "receptionist",
	}
}

func TestCreateClinicUser(t *testing.T) {
	ctx := context.Background()

	t.Run("writes user, profile, membership and role", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()

		f.users.On("Create", ctx, mock.MatchedBy(func(u *repo.User) bool {
			return u.Email == "recep@clinic.com" && u.PasswordHash != "" && u.PasswordHash != "secret123"
		})).Return(nil)
		f.users.On("CreateProfile", ctx, mock.MatchedBy(func(p *repo.Profile) bool {
			return p.FullName == "Maria Souza" && p.CreatedBy != nil && *p.CreatedBy == actor.UserID
		})).Return(nil)
		f.memberships.On("Create", ctx, mock.MatchedBy(func(uc *repo.UserClinic) bool {
			return uc.ClinicID == actor.ClinicID && uc.RoleType == repo.RoleTypeMember
		})).Return(nil)
		f.roles.On("Create", ctx, mock.MatchedBy(func(ur *repo.UserRole) bool {
			return ur.ClinicID == actor.ClinicID && ur.Role == authorize.ClinicRoleReceptionist && ur.ProfessionalID == nil
		})).Return(nil)

		got, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		require.NoError(t, err)
		assert.Equal(t, "recep@clinic.com", got.Email)
		assert.Equal(t, "Maria Souza", got.Profile.FullName)
		require.Len(t, f.bus.events, 1)
		assert.Equal(t, events.EntityUser, f.bus.events[0].Entity)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()
		actor.Role = authorize.ClinicRoleReceptionist

		_, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		assert.ErrorIs(t, err, ErrNotAdmin)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("admin of another clinic is forbidden", func(t *testing.T) {
		f := newFixture(false)
		_, err := f.svc.CreateClinicUser(ctx, adminScope(), validRequest(uuid.New()))
		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("validation", func(t *testing.T) {
		actor := adminScope()
		tests := []struct {
			name   string
			mutate func(r *CreateClinicUserRequest)
			want   error
		}{
			{"missing name", func(r *CreateClinicUserRequest) { r.FullName = "  " }, ErrMissingFields},
			{"bad clinic", func(r *CreateClinicUserRequest) { r.ClinicID = "nope" }, ErrInvalidClinic},
			{"bad email", func(r *CreateClinicUserRequest) { r.Email = "not-an-email" }, ErrInvalidEmail},
			{"short password", func(r *CreateClinicUserRequest) { r.Password = "abc" }, ErrPasswordTooShort},
			{"bad role", func(r *CreateClinicUserRequest) { r.Role = "owner" }, ErrInvalidRole},
			{"bad professional", func(r *CreateClinicUserRequest) { s := "x"; r.ProfessionalID = &s }, ErrInvalidProfessional},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(false)
				req := validRequest(actor.ClinicID)
				tt.mutate(&req)
				_, err := f.svc.CreateClinicUser(ctx, actor, req)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("professional from another clinic", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()
		pid := uuid.New()
		f.professionals.On("Exists", ctx, actor.ClinicID, pid).Return(false, nil)

		req := validRequest(actor.ClinicID)
		req.Role = "professional"
		s := pid.String()
		req.ProfessionalID = &s

		_, err := f.svc.CreateClinicUser(ctx, actor, req)
		assert.ErrorIs(t, err, ErrForeignProfessional)
		assert.Equal(t, apperr.KindCrossTenantReference, apperr.KindOf(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()
		f.users.On("Create", ctx, mock.Anything).Return(&pq.Error{Code: "23505"})

		_, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("role failure deletes the user", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.users.On("CreateProfile", ctx, mock.Anything).Return(nil)
		f.memberships.On("Create", ctx, mock.Anything).Return(nil)
		f.roles.On("Create", ctx, mock.Anything).Return(errors.New("connection reset"))
		f.users.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
		f.users.AssertCalled(t, "Delete", ctx, mock.Anything)
		assert.Empty(t, f.bus.events)
	})

	t.Run("failed compensation still fails", func(t *testing.T) {
		f := newFixture(false)
		actor := adminScope()
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.users.On("CreateProfile", ctx, mock.Anything).Return(errors.New("timeout"))
		f.users.On("Delete", ctx, mock.Anything).Return(errors.New("timeout"))

		_, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
		f.memberships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("welcome email failure is not fatal", func(t *testing.T) {
		f := newFixture(true)
		actor := adminScope()
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.users.On("CreateProfile", ctx, mock.Anything).Return(nil)
		f.memberships.On("Create", ctx, mock.Anything).Return(nil)
		f.roles.On("Create", ctx, mock.Anything).Return(nil)
		f.clinics.On("Get", ctx, actor.ClinicID).Return(&repo.Clinic{ID: actor.ClinicID, Name: "Clínica Sol"}, nil)
		f.mailer.On("Send", ctx, mock.MatchedBy(func(m email.Message) bool {
			return len(m.To) == 1 && m.To[0] == "recep@clinic.com"
		})).Return(errors.New("smtp down"))

		_, err := f.svc.CreateClinicUser(ctx, actor, validRequest(actor.ClinicID))
		require.NoError(t, err)
		f.mailer.AssertExpectations(t)
	})
}
