package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(app *fiber.App, uh *handler.UserHandler, th *handler.APITokenHandler, mw chain) {
	app.Post("/create-clinic-user", mw.auth, mw.sessionOnly, uh.CreateClinicUser)

	// Tokens cannot be used to mint more tokens.
	tokens := app.Group("/api-tokens-management", mw.auth, mw.sessionOnly, mw.clinic)
	tokens.Get("/", mw.perm(authorize.ResourceAPIToken, authorize.ActionRead), th.List)
	tokens.Post("/", mw.perm(authorize.ResourceAPIToken, authorize.ActionCreate), th.Issue)
	tokens.Delete("/:id", mw.perm(authorize.ResourceAPIToken, authorize.ActionDelete), th.Revoke)
}
