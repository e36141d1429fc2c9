package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/professional"
)

type ProfessionalHandler struct {
	svc professional.Service
}

func NewProfessionalHandler(svc professional.Service) *ProfessionalHandler {
	return &ProfessionalHandler{svc: svc}
}

// GET /professionals-api
func (h *ProfessionalHandler) List(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	out, err := h.svc.List(c.Context(), s)
	if err != nil {
		return err
	}
	return ok(c, out)
}

// GET /professionals-api/:id
func (h *ProfessionalHandler) Get(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Context(), s, id)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// POST /professionals-api
func (h *ProfessionalHandler) Create(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var body professional.CreateRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Context(), s, body)
	if err != nil {
		return err
	}
	return created(c, p)
}

// PUT /professionals-api/:id
func (h *ProfessionalHandler) Update(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body professional.UpdateRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Context(), s, id, body)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// DELETE /professionals-api/:id
func (h *ProfessionalHandler) Delete(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), s, id); err != nil {
		return err
	}
	return done(c)
}
