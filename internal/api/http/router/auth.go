package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(app *fiber.App, h *handler.AuthHandler, mw chain) {
	a := app.Group("/auth")
	a.Post("/register", h.Register)
	a.Post("/login", h.Login)
	a.Post("/refresh", h.Refresh)

	a.Post("/logout", mw.auth, mw.sessionOnly, h.Logout)
	a.Get("/me", mw.auth, mw.sessionOnly, h.Me)
}
