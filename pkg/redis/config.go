package redis

import (
	"time"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

// Config holds Redis connection settings. Redis backs login sessions, the
// failed-login counters and the HTTP rate limiter.
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeoutSeconds  int
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
}

func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		PoolSize:            10,
		MinIdleConns:        2,
		DialTimeoutSeconds:  5,
		ReadTimeoutSeconds:  3,
		WriteTimeoutSeconds: 3,
	}
}

func (c Config) DialTimeout() time.Duration  { return seconds(c.DialTimeoutSeconds, 5) }
func (c Config) ReadTimeout() time.Duration  { return seconds(c.ReadTimeoutSeconds, 3) }
func (c Config) WriteTimeout() time.Duration { return seconds(c.WriteTimeoutSeconds, 3) }

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// FromCentralConfig converts config.RedisConfig, falling back to
// DefaultConfig for every unset pool and timeout value.
func FromCentralConfig(c config.RedisConfig) Config {
	def := DefaultConfig()
	return Config{
		Addr:                c.Addr,
		DB:                  c.DB,
		Username:            c.Username,
		Password:            c.Password,
		PoolSize:            positive(c.PoolSize, def.PoolSize),
		MinIdleConns:        positive(c.MinIdleConns, def.MinIdleConns),
		DialTimeoutSeconds:  positive(c.DialTimeoutSeconds, def.DialTimeoutSeconds),
		ReadTimeoutSeconds:  positive(c.ReadTimeoutSeconds, def.ReadTimeoutSeconds),
		WriteTimeoutSeconds: positive(c.WriteTimeoutSeconds, def.WriteTimeoutSeconds),
	}
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
