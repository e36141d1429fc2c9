package authorize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	entadapter "github.com/casbin/ent-adapter"
)

// PolicyChannel is the Postgres NOTIFY channel replicas use to tell each
// other that the policy table changed.
const PolicyChannel = "clinicflow_casbin_policy_update"

// policyStale is set when a watcher-triggered reload fails and cleared by
// the next successful one.
var policyStale atomic.Bool

// IsPolicyHealthy is false while this replica may be enforcing an outdated
// policy set.
func IsPolicyHealthy() bool {
	return !policyStale.Load()
}

type CleanupFunc func(ctx context.Context)

// LoadModel reads the casbin model at path, or DefaultModel when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(DefaultModel)
	}
	return model.NewModelFromFile(path)
}

// NewEnforcer builds an auto-saving enforcer over the policy database. A
// LISTEN/NOTIFY watcher reloads policies when another replica writes them.
func NewEnforcer(modelPath string, dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("authz: model: %w", err)
	}
	adapter, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("authz: adapter: %w", err)
	}
	e, err := casbin.NewDistributedEnforcer(m, adapter)
	if err != nil {
		return nil, nil, fmt.Errorf("authz: enforcer: %w", err)
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{
		Channel: PolicyChannel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("authz: watcher: %w", err)
	}
	err = errors.Join(
		w.SetUpdateCallback(func(msg string) { reloadPolicy(e, msg) }),
		e.SetWatcher(w),
	)
	if err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("authz: watcher: %w", err)
	}

	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	cleanup := func(context.Context) {
		w.Close()
		e.StopAutoLoadPolicy()
		slog.Info("authz: policy watcher closed")
	}
	return e, cleanup, nil
}

func reloadPolicy(e *casbin.DistributedEnforcer, msg string) {
	slog.Debug("authz: policy change notified", "message", msg)
	if err := e.LoadPolicy(); err != nil {
		policyStale.Store(true)
		slog.Error("authz: policy reload failed", "err", err)
		return
	}
	policyStale.Store(false)
}
