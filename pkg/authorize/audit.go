package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"
)

// auditedAuthorization logs every decision and policy change. Denials log
// at warn, grants at debug; records carry the request scope from ctx.
type auditedAuthorization struct {
	inner IAuthorization
	log   *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditedAuthorization{inner: inner, log: logger}
}

func (a *auditedAuthorization) Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, domain, object, action)

	level := slog.LevelDebug
	switch {
	case err != nil:
		level = slog.LevelError
	case !allowed:
		level = slog.LevelWarn
	}
	a.log.Log(ctx, level, "authz: decision",
		"role", role,
		"domain", domain,
		"resource", object,
		"action", action,
		"allowed", allowed,
		"took_us", time.Since(start).Microseconds(),
		"err", err,
	)
	return allowed, err
}

func (a *auditedAuthorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *auditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	added, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.policyChange(ctx, "add", role, domain, object, action, effect, added, err)
	return added, err
}

func (a *auditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.policyChange(ctx, "remove", role, domain, object, action, effect, removed, err)
	return removed, err
}

func (a *auditedAuthorization) policyChange(ctx context.Context, op string, role Role, domain Domain, object Resource, action Action, effect PolicyEffect, changed bool, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	} else if !changed {
		level = slog.LevelDebug
	}
	a.log.Log(ctx, level, "authz: policy "+op,
		"role", role,
		"domain", domain,
		"resource", object,
		"action", action,
		"effect", effect,
		"changed", changed,
		"err", err,
	)
}

func (a *auditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}
