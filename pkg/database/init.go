package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

// InitializeDatabases creates the application and casbin databases when
// missing. It connects to the maintenance "postgres" database with the
// application credentials.
func InitializeDatabases(cfg *config.Config) error {
	names := databaseNames(cfg)
	if len(names) == 0 {
		return fmt.Errorf("database: no database names configured")
	}

	admin := FromCentralConfig(cfg.Database)
	admin.DBName = "postgres"
	db, err := openSQLDB(admin)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, name := range names {
		created, err := createIfMissing(ctx, db, name)
		if err != nil {
			return fmt.Errorf("database: create %q: %w", name, err)
		}
		slog.InfoContext(ctx, "database: initialized", "dbname", name, "created", created)
	}
	return nil
}

func databaseNames(cfg *config.Config) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range []string{cfg.Database.DBName, cfg.CasbinDatabase.DBName} {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func createIfMissing(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	_, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	return err == nil, err
}
