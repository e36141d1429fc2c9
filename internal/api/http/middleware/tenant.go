package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/membership"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

const LocalsClinicScope = "clinic_scope"

var errBadClinicHeader = apperr.Validation("invalid " + constants.HeaderClinicID + " value")

// ClinicScope resolves the clinic the request operates on and the caller's
// role in it. The X-Clinic-ID header picks among the caller's clinics; API
// tokens are pinned to their own clinic and the header is ignored.
func ClinicScope(members membership.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		p, ok := PrincipalFromFiber(c)
		if !ok {
			return errMissingBearer
		}

		preferred, err := clinicHeader(c)
		if err != nil {
			return err
		}

		scope, err := members.Scope(c.Context(), p, preferred)
		if err != nil {
			return err
		}

		c.Locals(LocalsClinicScope, scope)
		c.SetContext(reqctx.WithClinicScope(c.Context(), scope))
		return c.Next()
	}
}

func ScopeFromFiber(c fiber.Ctx) (*reqctx.ClinicScope, bool) {
	s, ok := c.Locals(LocalsClinicScope).(*reqctx.ClinicScope)
	return s, ok && s != nil
}

func clinicHeader(c fiber.Ctx) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Get(constants.HeaderClinicID))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, errBadClinicHeader
	}
	return &id, nil
}

// RequirePermission checks the resolved clinic scope against the permission
// matrix. Must run after ClinicScope.
func RequirePermission(gate rbac.Service, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		scope, _ := ScopeFromFiber(c)
		if err := gate.Require(c.Context(), scope, resource, action); err != nil {
			return err
		}
		return c.Next()
	}
}
