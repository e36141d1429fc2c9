// Package cmdutil holds helpers shared by the CLI subcommands.
package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/pkg/logs"
)

// ConfigFlag is the persistent root flag naming the config file.
const ConfigFlag = "config"

// LoadConfig reads the config next to the --config path and installs the
// configured logger as the slog default.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		return nil, fmt.Errorf("cli: %s flag: %w", ConfigFlag, err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cli: read config: %w", err)
	}
	slog.SetDefault(logs.New(cfg))
	return cfg, nil
}

// Context bounds a one-shot command by the server timeout, or a minute
// when none is configured.
func Context(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(parent, timeout)
}
