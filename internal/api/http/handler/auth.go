package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/auth"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body auth.RegisterRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	u, err := h.svc.Register(c.Context(), body)
	if err != nil {
		return err
	}
	return created(c, u)
}

// POST /auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body auth.LoginRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	tokens, err := h.svc.Login(c.Context(), body)
	if err != nil {
		return err
	}
	return ok(c, tokens)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return ok(c, tokens)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if p.SessionID == nil {
		return errNoPrincipal
	}
	if err := h.svc.Logout(c.Context(), *p.SessionID); err != nil {
		return err
	}
	return done(c)
}

// GET /auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Me(c.Context(), p.UserID)
	if err != nil {
		return err
	}
	return ok(c, u)
}
