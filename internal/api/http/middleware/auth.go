package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/apitoken"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/auth"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

const LocalsPrincipal = "principal"

var (
	errMissingBearer   = apperr.Unauthenticated("Missing or invalid authorization header")
	errSessionRequired = apperr.Unauthenticated("This endpoint requires a session credential")
)

// AuthRequired accepts either kind of bearer credential. A 64 character
// lowercase hex string is an API token; anything else is a PASETO access
// token whose session must still exist in Redis.
func AuthRequired(sessions auth.Service, tokens apitoken.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw, ok := bearer(c)
		if !ok {
			return errMissingBearer
		}

		var p *reqctx.Principal
		if apitoken.IsAPITokenFormat(raw) {
			t, err := tokens.Validate(c.Context(), raw)
			if err != nil {
				return err
			}
			clinicID := t.ClinicID
			p = &reqctx.Principal{
				UserID:        t.UserID,
				Credential:    reqctx.CredentialAPIToken,
				TokenClinicID: &clinicID,
			}
		} else {
			claims, err := sessions.Authenticate(c.Context(), raw)
			if err != nil {
				return err
			}
			p = &reqctx.Principal{
				UserID:     claims.UserID,
				Credential: reqctx.CredentialSession,
				SessionID:  claims.SessionID,
			}
		}

		c.Locals(LocalsPrincipal, p)
		c.SetContext(reqctx.WithPrincipal(c.Context(), p))
		return c.Next()
	}
}

// SessionOnly rejects API token callers. Must run after AuthRequired.
func SessionOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		p, ok := PrincipalFromFiber(c)
		if !ok {
			return errMissingBearer
		}
		if p.Credential != reqctx.CredentialSession {
			return errSessionRequired
		}
		return c.Next()
	}
}

func PrincipalFromFiber(c fiber.Ctx) (*reqctx.Principal, bool) {
	p, ok := c.Locals(LocalsPrincipal).(*reqctx.Principal)
	return p, ok && p != nil
}

func bearer(c fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
