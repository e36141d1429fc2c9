package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/database"
	"github.com/Alijeyrad/clinicflow_backend/pkg/email"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/clinicflow_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/clinicflow_backend/pkg/redis"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideEntClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
	fx.Provide(
		ProvideEventBus,
		func(b events.Bus) events.Publisher { return b },
		func(b events.Bus) events.Subscriber { return b },
	),
	fx.Provide(ProvidePasetoManager),
	fx.Provide(ProvidePasswordHasher),
)

func ProvideEntClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, err := database.NewEntClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			slog.InfoContext(ctx, "infra: running auto migration", "safe_mode", cfg.Database.Migrations.SafeMode)
			return database.MigrateEnt(ctx, client, cfg.Database.Migrations.SafeMode)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideAuthorization builds the casbin enforcer. A configured policy file
// selects the CSV adapter; otherwise policies live in the casbin database
// and are kept in sync across instances by the postgres watcher.
func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)

	var auth authorize.IAuthorization
	if acfg.PolicyFile != "" {
		enforcer, err := authorize.NewFileEnforcer(acfg.CasbinModelPath, acfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		if auth, err = authorize.NewAuthorization(enforcer); err != nil {
			return nil, err
		}
	} else {
		dsn := database.NewDSN(cfg.CasbinDatabase)
		enforcer, cleanup, err := authorize.NewEnforcer(acfg.CasbinModelPath, dsn)
		if err != nil {
			return nil, err
		}
		if auth, err = authorize.NewAuthorization(enforcer); err != nil {
			cleanup(context.Background())
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				slog.Debug("cleaning up Casbin enforcer")
				cleanup(ctx)
				return nil
			},
		})
	}

	if acfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}
	if acfg.SeedOnStart {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				slog.InfoContext(ctx, "infra: seeding default permission matrix")
				return authorize.SeedDefaultPolicies(ctx, auth)
			},
		})
	}
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) *email.Client {
	return email.NewFromCentral(cfg.Email)
}

// ProvideNatsClient returns a nil connection when no URL is configured.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Info("infra: nats not configured, events disabled")
		return nil, nil
	}

	name := cfg.Nats.Name
	if name == "" {
		name = constants.AppName
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("infra: nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("infra: nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideEventBus(nc *nats.Conn) events.Bus {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNATS(nc, slog.Default())
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}
