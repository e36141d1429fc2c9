package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

const defaultPerMinute = 100

var errTooManyRequests = fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")

// RateLimit caps requests per client IP over a sliding minute. With a Redis
// client the window is shared by every replica; without one each process
// counts on its own. Health probes are never limited.
func RateLimit(rdb *redis.Client, perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	cfg := limiter.Config{
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c fiber.Ctx) string { return "ratelimit:" + c.IP() },
		Next:              func(c fiber.Ctx) bool { return isProbe(c.Path()) },
		LimitReached:      func(fiber.Ctx) error { return errTooManyRequests },
	}
	if rdb != nil {
		cfg.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(cfg)
}

func isProbe(path string) bool {
	switch path {
	case healthcheck.LivenessEndpoint, healthcheck.ReadinessEndpoint, healthcheck.StartupEndpoint:
		return true
	}
	return false
}
