package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/router"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.OTel != nil && p.Cfg.Observability.Tracing.Enabled)
	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("http: server error", "err", err)
				}
			}()
			slog.Info("http: listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Router.CloseStreams()
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the fiber app with the global middleware. Routes are
// registered separately.
func NewApp(cfg *config.Config, rdb *redis.Client, tracing bool) *fiber.App {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      constants.AppName,
		ErrorHandler: ErrorHandler,
		ReadTimeout:  timeout,
		WriteTimeout: 0, // SSE responses stay open
	})

	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if tracing {
		app.Use(observability.FiberMiddleware())
	}

	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowMethods:     cfg.Server.CORS.AllowMethods,
			AllowHeaders:     cfg.Server.CORS.AllowHeaders,
			ExposeHeaders:    cfg.Server.CORS.ExposeHeaders,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
			MaxAge:           cfg.Server.CORS.MaxAgeSeconds,
		}))
	}

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
		app.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.RequestsPerMinute))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:requestid}] ${method} ${url} ${status} ${latency}\n",
	}))

	return app
}

// ErrorHandler renders every error as {"error": message}. Application
// errors carry their own status; fiber errors (404, 405, 429...) keep theirs;
// anything else is a 500 with a generic message.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	status := apperr.KindOf(err).HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.Context(), "http: request failed",
			"method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": apperr.PublicMessage(err)})
}
