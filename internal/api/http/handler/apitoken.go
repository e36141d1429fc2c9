package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/internal/service/apitoken"
)

type APITokenHandler struct {
	svc apitoken.Service
}

func NewAPITokenHandler(svc apitoken.Service) *APITokenHandler {
	return &APITokenHandler{svc: svc}
}

// GET /api-tokens-management
func (h *APITokenHandler) List(c fiber.Ctx) error {
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

// POST /api-tokens-management
//
// The plaintext token is only ever part of this response.
func (h *APITokenHandler) Issue(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var body apitoken.IssueRequest
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	tok, err := h.svc.Issue(c.Context(), s, body)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return created(c, tok)
}

// DELETE /api-tokens-management/:id
func (h *APITokenHandler) Revoke(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Revoke(c.Context(), s, id); err != nil {
		return err
	}
	return done(c)
}
