package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/appointment"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// GET /appointments-api?start_date=&end_date=&patient_id=&professional_id=&status=
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var q appointment.ListRequest
	if err := c.Bind().Query(&q); err != nil {
		return apperr.Validation("invalid query parameters")
	}
	out, err := h.svc.List(c.Context(), s, q)
	if err != nil {
		return err
	}
	return ok(c, out)
}

// GET /appointments-api/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Context(), s, id)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// POST /appointments-api
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var body appointment.CreateRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Context(), s, body)
	if err != nil {
		return err
	}
	return created(c, a)
}

// PUT /appointments-api/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body appointment.UpdateRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	a, err := h.svc.Update(c.Context(), s, id, body)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// PATCH /appointments-api/:id/attendance
func (h *AppointmentHandler) UpdateAttendance(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		AttendanceStatus string `json:"attendance_status"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	a, err := h.svc.UpdateAttendanceStatus(c.Context(), s, id, body.AttendanceStatus)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// DELETE /appointments-api/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
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
