package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(app *fiber.App, h *handler.AppointmentHandler, mw chain) {
	appts := app.Group("/appointments-api", mw.auth, mw.sessionOnly, mw.clinic)
	appts.Get("/", mw.perm(authorize.ResourceAppointment, authorize.ActionRead), h.List)
	appts.Post("/", mw.perm(authorize.ResourceAppointment, authorize.ActionCreate), h.Create)
	appts.Get("/:id", mw.perm(authorize.ResourceAppointment, authorize.ActionRead), h.Get)
	appts.Put("/:id", mw.perm(authorize.ResourceAppointment, authorize.ActionUpdate), h.Update)
	appts.Patch("/:id/attendance", mw.perm(authorize.ResourceAppointment, authorize.ActionUpdate), h.UpdateAttendance)
	appts.Delete("/:id", mw.perm(authorize.ResourceAppointment, authorize.ActionDelete), h.Delete)
}
