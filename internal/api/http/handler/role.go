package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
)

type RoleHandler struct {
	svc rbac.Service
}

func NewRoleHandler(svc rbac.Service) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// GET /user-roles
func (h *RoleHandler) List(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	out, err := h.svc.ListRoles(c.Context(), s)
	if err != nil {
		return err
	}
	return ok(c, out)
}

// PUT /user-roles/:id
func (h *RoleHandler) Update(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body rbac.UpdateRoleRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	r, err := h.svc.UpdateRole(c.Context(), s, id, body)
	if err != nil {
		return err
	}
	return ok(c, r)
}

// DELETE /user-roles/:id
func (h *RoleHandler) Delete(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRole(c.Context(), s, id); err != nil {
		return err
	}
	return done(c)
}
