package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// CredentialKind tells which kind of bearer credential authenticated a request.
type CredentialKind string

const (
	CredentialSession  CredentialKind = "session"
	CredentialAPIToken CredentialKind = "api_token"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID     uuid.UUID
	Credential CredentialKind

	// SessionID is set for session credentials.
	SessionID *uuid.UUID

	// TokenClinicID is the clinic an API token is bound to. API token
	// requests always operate on this clinic.
	TokenClinicID *uuid.UUID
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(*Principal)
	return p, ok && p != nil
}
