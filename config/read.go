package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
)

func ReadConfig(configPath string) (*Config, error) {
	// A .env next to the config file (or in the working directory) is loaded
	// first so local runs can keep secrets out of config.yaml. Existing
	// environment variables always win.
	loadDotEnv(configPath)

	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. CLINICFLOW_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key viper must know about for AutomaticEnv to
// apply to keys missing from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("casbin_database.port", 5432)
	v.SetDefault("casbin_database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.requests_per_minute", 100)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.local_key_hex", "")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 30)
	v.SetDefault("authentication.login_lockout.max_attempts", 5)
	v.SetDefault("authentication.login_lockout.lock_minutes", 15)
	v.SetDefault("authorization.enable_audit", true)
	v.SetDefault("authorization.health_check_enabled", true)
	v.SetDefault("password.min_length", 6)
	v.SetDefault("patients.phone_region", constants.DefaultPhoneRegion)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.name", constants.AppName)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output.stdout", true)
}

func loadDotEnv(configPath string) {
	candidates := []string{filepath.Join(configPath, ".env"), ".env"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("config: failed to load .env", "path", p, "error", err)
		}
		return
	}
}
