package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// GET /patients-api
func (h *PatientHandler) List(c fiber.Ctx) error {
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

// GET /patients-api/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
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

// POST /patients-api
func (h *PatientHandler) Create(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var body patient.PatientRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Context(), s, body)
	if err != nil {
		return err
	}
	return created(c, p)
}

// PUT /patients-api/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body patient.PatientRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Context(), s, id, body)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// DELETE /patients-api/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
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
