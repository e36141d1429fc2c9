package router

import (
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/middleware"
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
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/observability"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	DB              *repo.Client  `optional:"true"`
	Redis           *redis.Client `optional:"true"`
	AuthSvc         auth.Service
	APITokenSvc     apitoken.Service
	MembershipSvc   membership.Service
	RBACSvc         rbac.Service
	UserSvc         user.Service
	PatientSvc      patient.Service
	ProfessionalSvc professional.Service
	AppointmentSvc  appointment.Service
	Events          events.Subscriber
}

type Router struct {
	p Params

	streams   chan struct{}
	closeOnce sync.Once
}

func NewRouter(p Params) *Router {
	return &Router{p: p, streams: make(chan struct{})}
}

// CloseStreams ends the open event streams. The http stop hook calls it
// before shutting the server down.
func (r *Router) CloseStreams() {
	r.closeOnce.Do(func() { close(r.streams) })
}

// chain bundles the middleware every route group is built from.
type chain struct {
	auth        fiber.Handler
	sessionOnly fiber.Handler
	clinic      fiber.Handler
	perm        func(authorize.Resource, authorize.Action) fiber.Handler
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	mw := chain{
		auth:        middleware.AuthRequired(r.p.AuthSvc, r.p.APITokenSvc),
		sessionOnly: middleware.SessionOnly(),
		clinic:      middleware.ClinicScope(r.p.MembershipSvc),
		perm: func(res authorize.Resource, act authorize.Action) fiber.Handler {
			return middleware.RequirePermission(r.p.RBACSvc, res, act)
		},
	}

	authH := handler.NewAuthHandler(r.p.AuthSvc)
	clinicH := handler.NewClinicHandler(r.p.MembershipSvc, r.p.RBACSvc)
	roleH := handler.NewRoleHandler(r.p.RBACSvc)
	userH := handler.NewUserHandler(r.p.UserSvc, r.p.MembershipSvc, r.p.RBACSvc)
	tokenH := handler.NewAPITokenHandler(r.p.APITokenSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	professionalH := handler.NewProfessionalHandler(r.p.ProfessionalSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	eventH := handler.NewEventHandler(r.p.Events, r.streams)

	r.registerAuthRoutes(app, authH, mw)
	r.registerClinicRoutes(app, clinicH, roleH, mw)
	r.registerUserRoutes(app, userH, tokenH, mw)
	r.registerPatientRoutes(app, patientH, mw)
	r.registerProfessionalRoutes(app, professionalH, mw)
	r.registerAppointmentRoutes(app, appointmentH, mw)

	app.Get("/events", mw.auth, mw.sessionOnly, mw.clinic,
		mw.perm(authorize.ResourceEvent, authorize.ActionRead), eventH.Stream)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{Probe: r.ready}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, observability.MetricsHandler())
	}
}

// ready reports whether every backing store answers and, when policy health
// checks are on, whether the last policy reload succeeded.
func (r *Router) ready(c fiber.Ctx) bool {
	if r.p.Cfg.Authorization.HealthCheckEnabled && !authorize.IsPolicyHealthy() {
		return false
	}
	if r.p.DB != nil && r.p.DB.Ping(c.Context()) != nil {
		return false
	}
	return r.p.Redis == nil || r.p.Redis.Ping(c.Context()).Err() == nil
}
