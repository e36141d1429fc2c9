package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

func (r *Router) registerClinicRoutes(app *fiber.App, ch *handler.ClinicHandler, rh *handler.RoleHandler, mw chain) {
	clinics := app.Group("/clinics", mw.auth, mw.sessionOnly)
	clinics.Get("/membership", ch.Membership)
	clinics.Post("/", ch.Create)
	clinics.Get("/current", mw.clinic, mw.perm(authorize.ResourceClinic, authorize.ActionRead), ch.Current)
	clinics.Put("/current", mw.clinic, mw.perm(authorize.ResourceClinic, authorize.ActionUpdate), ch.UpdateCurrent)

	// Any member may try; the claim itself fails once the clinic has an admin.
	clinics.Post("/:id/assign-self-admin", ch.AssignSelfAdmin)

	roles := app.Group("/user-roles", mw.auth, mw.sessionOnly, mw.clinic)
	roles.Get("/", mw.perm(authorize.ResourceUserRole, authorize.ActionRead), rh.List)
	roles.Put("/:id", mw.perm(authorize.ResourceUserRole, authorize.ActionUpdate), rh.Update)
	roles.Delete("/:id", mw.perm(authorize.ResourceUserRole, authorize.ActionDelete), rh.Delete)
}
