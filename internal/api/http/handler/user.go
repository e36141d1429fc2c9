package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/membership"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/user"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

type UserHandler struct {
	svc     user.Service
	members membership.Service
	gate    rbac.Service
}

func NewUserHandler(svc user.Service, members membership.Service, gate rbac.Service) *UserHandler {
	return &UserHandler{svc: svc, members: members, gate: gate}
}

// POST /create-clinic-user
//
// The target clinic comes from the body, so the actor's scope is resolved
// here rather than by the clinic scope middleware.
func (h *UserHandler) CreateClinicUser(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var body user.CreateClinicUserRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	raw := strings.TrimSpace(body.ClinicID)
	if raw == "" {
		return user.ErrMissingFields
	}
	clinicID, err := uuid.Parse(raw)
	if err != nil {
		return user.ErrInvalidClinic
	}
	actor, err := h.members.Scope(c.Context(), p, &clinicID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return user.ErrNotAdmin
	}
	if err := h.gate.Require(c.Context(), actor, authorize.ResourceUser, authorize.ActionCreate); err != nil {
		return err
	}

	u, err := h.svc.CreateClinicUser(c.Context(), actor, body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": u})
}
