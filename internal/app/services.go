package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/apitoken"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/appointment"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/auth"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/membership"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/patient"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/professional"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/user"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/email"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	pasetotoken "github.com/Alijeyrad/clinicflow_backend/pkg/paseto"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAuthService,
		ProvideAPITokenService,
		ProvideMembershipService,
		ProvideRBACService,
		ProvideUserService,
		ProvidePatientService,
		ProvideProfessionalService,
		ProvideAppointmentService,
	),
)

func ProvideAuthService(
	db *repo.Client,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) auth.Service {
	return auth.New(db.User, rdb, paseto, hasher, auth.FromCentralConfig(cfg.Authentication.LoginLockout))
}

func ProvideAPITokenService(db *repo.Client, bus events.Publisher) apitoken.Service {
	return apitoken.New(db.APIToken, bus)
}

func ProvideMembershipService(db *repo.Client, bus events.Publisher) membership.Service {
	return membership.New(db.Clinic, db.Membership, db.UserRole, bus)
}

func ProvideRBACService(db *repo.Client, authz authorize.IAuthorization, bus events.Publisher) rbac.Service {
	return rbac.New(authz, db.Membership, db.UserRole, db.Professional, db, bus)
}

func ProvideUserService(
	db *repo.Client,
	hasher *password.Hasher,
	mailer *email.Client,
	bus events.Publisher,
) user.Service {
	return user.New(user.Deps{
		Users:         db.User,
		Memberships:   db.Membership,
		Roles:         db.UserRole,
		Professionals: db.Professional,
		Clinics:       db.Clinic,
		Hasher:        hasher,
		Mailer:        mailer,
		MailCfg:       mailer.Config(),
		Bus:           bus,
	})
}

func ProvidePatientService(db *repo.Client, bus events.Publisher, cfg *config.Config) patient.Service {
	return patient.New(db.Patient, bus, patient.Config{PhoneRegion: cfg.Patients.PhoneRegion})
}

func ProvideProfessionalService(db *repo.Client, bus events.Publisher) professional.Service {
	return professional.New(db.Professional, bus)
}

func ProvideAppointmentService(db *repo.Client, bus events.Publisher) appointment.Service {
	return appointment.New(db.Appointment, db.Patient, db.Professional, bus)
}
