// Package http wires the API server command.
package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/clinicflow_backend/cmd/cmdutil"
	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/router"
	"github.com/Alijeyrad/clinicflow_backend/internal/app"
)

func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the clinic API over HTTP",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newStartCommand())
	return cmd
}

func newStartCommand() *cobra.Command {
	var (
		shutdownTimeout time.Duration
		fxLogs          bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the API server and its background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}

			fxApp := fx.New(
				serverOptions(cfg),
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger {
					if fxLogs {
						return &fxevent.ConsoleLogger{W: cmd.ErrOrStderr()}
					}
					return fxevent.NopLogger
				}),
			)
			fxApp.Run()
			return fxApp.Err()
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long to wait for in-flight requests on shutdown")
	cmd.Flags().BoolVar(&fxLogs, "fx-logs", false, "print dependency injection events")
	return cmd
}

// serverOptions is the full dependency graph behind the API server.
func serverOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		http.Module,
		fx.Invoke(func(*fiber.App) {}),
	)
}
