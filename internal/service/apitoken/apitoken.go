package apitoken

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/codes"
)

// IsAPITokenFormat reports whether s has the shape of an API token: 64
// lowercase hex characters. Anything else is treated as a session token.
func IsAPITokenFormat(s string) bool {
	return codes.IsLowerHex(s, 2*codes.APITokenByteLength)
}

type Store interface {
	Create(ctx context.Context, t *repo.APIToken) error
	GetByHash(ctx context.Context, hash string) (*repo.APIToken, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, userID, clinicID uuid.UUID) ([]*repo.APIToken, error)
	Delete(ctx context.Context, userID, clinicID, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type IssueRequest struct {
	Name string `json:"name"`

	// ExpiresInDays counts whole days; a fractional part is dropped. Zero or
	// negative issues a token that never expires.
	ExpiresInDays float64 `json:"expiresInDays"`
}

// TokenView is a stored token as shown to its owner.
type TokenView struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	IsActive     bool       `json:"is_active"`
	TokenPreview string     `json:"token_preview"`
}

// IssuedToken carries the plaintext. It is returned once and never stored.
type IssuedToken struct {
	TokenView
	Token string `json:"token"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Issue(ctx context.Context, scope *reqctx.ClinicScope, req IssueRequest) (*IssuedToken, error)

	// Validate resolves a plaintext token to its row. The token must be
	// active and unexpired.
	Validate(ctx context.Context, plaintext string) (*repo.APIToken, error)

	List(ctx context.Context, scope *reqctx.ClinicScope) ([]*TokenView, error)
	Revoke(ctx context.Context, scope *reqctx.ClinicScope, tokenID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type apiTokenService struct {
	store Store
	bus   events.Publisher
	now   func() time.Time
}

func New(store Store, bus events.Publisher) Service {
	return &apiTokenService{store: store, bus: bus, now: time.Now}
}

func (s *apiTokenService) Issue(ctx context.Context, scope *reqctx.ClinicScope, req IssueRequest) (*IssuedToken, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	plaintext, err := codes.GenerateSecureToken(codes.APITokenByteLength)
	if err != nil {
		return nil, err
	}

	t := &repo.APIToken{
		UserID:    scope.UserID,
		ClinicID:  scope.ClinicID,
		Name:      name,
		TokenHash: codes.SHA256Hex(plaintext),
		IsActive:  true,
	}
	if days := int(req.ExpiresInDays); days > 0 {
		exp := s.now().UTC().AddDate(0, 0, days)
		t.ExpiresAt = &exp
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, apperr.Store("create api token", err)
	}

	slog.InfoContext(ctx, "apitoken: issued",
		"token_id", t.ID, "clinic_id", t.ClinicID, "user_id", t.UserID)
	s.publish(ctx, scope, events.OpCreated, t.ID)

	return &IssuedToken{TokenView: view(t), Token: plaintext}, nil
}

func (s *apiTokenService) Validate(ctx context.Context, plaintext string) (*repo.APIToken, error) {
	if !IsAPITokenFormat(plaintext) {
		return nil, ErrInvalidToken
	}

	t, err := s.store.GetByHash(ctx, codes.SHA256Hex(plaintext))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Store("get api token", err)
	}

	now := s.now().UTC()
	if !t.IsActive || (t.ExpiresAt != nil && !t.ExpiresAt.After(now)) {
		return nil, ErrInvalidToken
	}

	if err := s.store.TouchLastUsed(ctx, t.ID, now); err != nil {
		slog.WarnContext(ctx, "apitoken: failed to record last use", "token_id", t.ID, "err", err)
	} else {
		t.LastUsedAt = &now
	}
	return t, nil
}

func (s *apiTokenService) List(ctx context.Context, scope *reqctx.ClinicScope) ([]*TokenView, error) {
	tokens, err := s.store.List(ctx, scope.UserID, scope.ClinicID)
	if err != nil {
		return nil, apperr.Store("list api tokens", err)
	}

	out := make([]*TokenView, 0, len(tokens))
	for _, t := range tokens {
		v := view(t)
		out = append(out, &v)
	}
	return out, nil
}

func (s *apiTokenService) Revoke(ctx context.Context, scope *reqctx.ClinicScope, tokenID uuid.UUID) error {
	if err := s.store.Delete(ctx, scope.UserID, scope.ClinicID, tokenID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenNotFound
		}
		return apperr.Store("delete api token", err)
	}

	s.publish(ctx, scope, events.OpDeleted, tokenID)
	return nil
}

func (s *apiTokenService) publish(ctx context.Context, scope *reqctx.ClinicScope, op events.Op, id uuid.UUID) {
	s.bus.Publish(ctx, events.Event{
		ClinicID: scope.ClinicID,
		Entity:   events.EntityAPIToken,
		Op:       op,
		ID:       id,
		ActorID:  scope.UserID,
	})
}

func view(t *repo.APIToken) TokenView {
	return TokenView{
		ID:           t.ID,
		Name:         t.Name,
		CreatedAt:    t.CreatedAt,
		LastUsedAt:   t.LastUsedAt,
		ExpiresAt:    t.ExpiresAt,
		IsActive:     t.IsActive,
		TokenPreview: preview(t.TokenHash),
	}
}

// preview shows the last four characters of the stored hash.
func preview(hash string) string {
	if len(hash) > 4 {
		hash = hash[len(hash)-4:]
	}
	return "****" + hash
}
