package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

var (
	errInvalidBody = apperr.Validation("invalid request body")
	errInvalidID   = apperr.Validation("invalid id")
	errNoPrincipal = apperr.Unauthenticated("unauthorized")
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func done(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

// bindJSON decodes the request body. An empty body decodes to the zero
// value so that required field checks report the real problem.
func bindJSON(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.Bind().JSON(out); err != nil {
		return errInvalidBody
	}
	return nil
}

func paramID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func principal(c fiber.Ctx) (*reqctx.Principal, error) {
	p, ok := middleware.PrincipalFromFiber(c)
	if !ok {
		return nil, errNoPrincipal
	}
	return p, nil
}

func scope(c fiber.Ctx) (*reqctx.ClinicScope, error) {
	s, ok := middleware.ScopeFromFiber(c)
	if !ok {
		return nil, errors.New("handler: clinic scope missing from route")
	}
	return s, nil
}
