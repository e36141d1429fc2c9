package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is what services and middleware depend on. Every request
// is checked as (role, clinic domain, resource, action).
type IAuthorization interface {
	Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden when the tuple is not allowed.
	MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error

	AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)

	Raw() *casbin.DistributedEnforcer
}

// Authorization wraps a configured enforcer with typed, validated calls.
type Authorization struct {
	enforcer *casbin.DistributedEnforcer
}

// NewAuthorization loads the current policy set into e.
func NewAuthorization(e *casbin.DistributedEnforcer) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}
	return &Authorization{enforcer: e}, nil
}

func (a *Authorization) Raw() *casbin.DistributedEnforcer { return a.enforcer }

// Enforce only accepts concrete tuples: wildcards are for policy rows, not
// requests.
func (a *Authorization) Enforce(_ context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	if domain == WildcardDomain {
		return false, invalid("domain", domain)
	}
	if err := validateTuple(role, domain, object, action, false); err != nil {
		return false, err
	}
	return a.enforcer.Enforce(string(role), string(domain), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	switch {
	case err != nil:
		return err
	case !ok:
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddPermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := validateTuple(role, domain, object, action, true); err != nil {
		return false, err
	}
	if effect != EffectAllow && effect != EffectDeny {
		return false, invalid("effect", effect)
	}
	return a.enforcer.AddPolicy(string(role), string(domain), string(object), string(action), string(effect))
}

// RemovePermission accepts any non-empty tuple so rows written by older
// vocabularies can still be cleaned up.
func (a *Authorization) RemovePermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if role == "" || object == "" || action == "" || effect == "" {
		return false, fmt.Errorf("%w: empty permission fields", ErrInvalidArgs)
	}
	if !IsValidDomain(domain) {
		return false, invalid("domain", domain)
	}
	return a.enforcer.RemovePolicy(string(role), string(domain), string(object), string(action), string(effect))
}

// validateTuple checks each field against the known vocabulary. Policy rows
// may use wildcards; requests may not.
func validateTuple(role Role, domain Domain, object Resource, action Action, policy bool) error {
	if role == "" || domain == "" || object == "" || action == "" {
		return fmt.Errorf("%w: empty tuple field", ErrInvalidArgs)
	}
	if !known(KnownRoles, role, policy && role == WildcardRole) {
		return invalid("role", role)
	}
	if !IsValidDomain(domain) {
		return invalid("domain", domain)
	}
	if !known(KnownResources, object, policy && object == WildcardResource) {
		return invalid("resource", object)
	}
	if !known(KnownActions, action, policy && action == WildcardAction) {
		return invalid("action", action)
	}
	return nil
}

func known[T comparable](set map[T]struct{}, v T, wildcard bool) bool {
	_, ok := set[v]
	return ok || wildcard
}

func invalid[T ~string](field string, v T) error {
	return fmt.Errorf("%w: unknown %s %q", ErrInvalidArgs, field, string(v))
}
