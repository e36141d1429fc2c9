package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
)

// NewEntClient opens the application database and wraps it in a repo client.
func NewEntClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	return NewEntClientFromConfig(FromCentralConfig(cfg))
}

func NewEntClientFromConfig(cfg Config) (*repo.Client, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	var drv dialect.Driver = entsql.OpenDB(dialect.Postgres, db)
	if cfg.EnableLogging {
		drv = dialect.DebugWithContext(drv, func(ctx context.Context, v ...any) {
			slog.DebugContext(ctx, "database: statement", "sql", fmt.Sprint(v...))
		})
	}
	if t := cfg.SlowQueryThreshold(); t > 0 {
		drv = &slowLog{Driver: drv, threshold: t}
	}
	return repo.NewClient(drv), nil
}

// MigrateEnt creates missing tables, columns and indexes. In safe mode
// nothing is dropped.
func MigrateEnt(ctx context.Context, client *repo.Client, safe bool) error {
	return client.Migrate(ctx,
		schema.WithDropColumn(!safe),
		schema.WithDropIndex(!safe),
	)
}

// slowLog warns about statements run outside a transaction that take
// longer than threshold.
type slowLog struct {
	dialect.Driver
	threshold time.Duration
}

func (d *slowLog) Exec(ctx context.Context, query string, args, v any) error {
	defer d.observe(ctx, query, time.Now())
	return d.Driver.Exec(ctx, query, args, v)
}

func (d *slowLog) Query(ctx context.Context, query string, args, v any) error {
	defer d.observe(ctx, query, time.Now())
	return d.Driver.Query(ctx, query, args, v)
}

func (d *slowLog) observe(ctx context.Context, query string, start time.Time) {
	if took := time.Since(start); took >= d.threshold {
		slog.WarnContext(ctx, "database: slow statement", "sql", query, "took_ms", took.Milliseconds())
	}
}
