package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/membership"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
)

type ClinicHandler struct {
	members membership.Service
	gate    rbac.Service
}

func NewClinicHandler(members membership.Service, gate rbac.Service) *ClinicHandler {
	return &ClinicHandler{members: members, gate: gate}
}

// GET /clinics/membership
func (h *ClinicHandler) Membership(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var preferred *uuid.UUID
	if v := c.Get(constants.HeaderClinicID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.Validation("invalid " + constants.HeaderClinicID + " value")
		}
		preferred = &id
	}

	m, err := h.members.Resolve(c.Context(), p.UserID, preferred)
	if err != nil {
		return err
	}
	return ok(c, m)
}

// POST /clinics
func (h *ClinicHandler) Create(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var body membership.CreateClinicRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	cl, err := h.members.CreateClinic(c.Context(), p.UserID, body)
	if err != nil {
		return err
	}
	return created(c, cl)
}

// currentClinic is the selected clinic plus the caller's standing in it.
type currentClinic struct {
	*repo.Clinic
	Role     authorize.ClinicRole `json:"role"`
	IsMaster bool                 `json:"is_master"`
}

// GET /clinics/current
func (h *ClinicHandler) Current(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	cl, err := h.members.GetClinic(c.Context(), s.ClinicID)
	if err != nil {
		return err
	}
	return ok(c, currentClinic{Clinic: cl, Role: s.Role, IsMaster: s.IsMaster})
}

// PUT /clinics/current
func (h *ClinicHandler) UpdateCurrent(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var body membership.UpdateClinicRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	cl, err := h.members.UpdateClinic(c.Context(), s, body)
	if err != nil {
		return err
	}
	return ok(c, cl)
}

// POST /clinics/:id/assign-self-admin
func (h *ClinicHandler) AssignSelfAdmin(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clinicID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.gate.AssignSelfAsAdmin(c.Context(), p.UserID, clinicID)
	if err != nil {
		return err
	}
	return ok(c, role)
}
