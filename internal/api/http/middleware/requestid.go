package middleware

import (
	"time"
	"unicode"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

const (
	HeaderRequestID = "X-Request-Id"

	// LocalRequestID is read by the access log format.
	LocalRequestID = "requestid"

	maxRequestIDLen = 128
)

// RequestID keeps a caller-supplied request id when it is short and
// printable, otherwise mints one. The id is echoed in the response and
// carried on the request context for logging.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if !usableRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Locals(LocalRequestID, rid)
		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), &reqctx.RequestMeta{
			RequestID:   rid,
			ClientIP:    c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			RequestedAt: time.Now(),
		}))
		return c.Next()
	}
}

func usableRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
