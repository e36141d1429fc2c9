package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

// Patients are the one resource external automation reaches with an API
// token, so this group does not require a session.
func (r *Router) registerPatientRoutes(app *fiber.App, h *handler.PatientHandler, mw chain) {
	patients := app.Group("/patients-api", mw.auth, mw.clinic)
	patients.Get("/", mw.perm(authorize.ResourcePatient, authorize.ActionRead), h.List)
	patients.Post("/", mw.perm(authorize.ResourcePatient, authorize.ActionCreate), h.Create)
	patients.Get("/:id", mw.perm(authorize.ResourcePatient, authorize.ActionRead), h.Get)
	patients.Put("/:id", mw.perm(authorize.ResourcePatient, authorize.ActionUpdate), h.Update)
	patients.Delete("/:id", mw.perm(authorize.ResourcePatient, authorize.ActionDelete), h.Delete)
}

func (r *Router) registerProfessionalRoutes(app *fiber.App, h *handler.ProfessionalHandler, mw chain) {
	pros := app.Group("/professionals-api", mw.auth, mw.sessionOnly, mw.clinic)
	pros.Get("/", mw.perm(authorize.ResourceProfessional, authorize.ActionRead), h.List)
	pros.Post("/", mw.perm(authorize.ResourceProfessional, authorize.ActionCreate), h.Create)
	pros.Get("/:id", mw.perm(authorize.ResourceProfessional, authorize.ActionRead), h.Get)
	pros.Put("/:id", mw.perm(authorize.ResourceProfessional, authorize.ActionUpdate), h.Update)
	pros.Delete("/:id", mw.perm(authorize.ResourceProfessional, authorize.ActionDelete), h.Delete)
}
