// Package repo is the relational store. Queries are built with ent's SQL
// dialect builder and run over a lib/pq connection pool; every clinic-owned
// read and write takes the clinic id and filters on it.
package repo

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = entsql.Dialect(dialect.Postgres)

// repos groups the table repositories over one connection or transaction.
type repos struct {
	Clinic       *ClinicRepo
	Membership   *MembershipRepo
	UserRole     *UserRoleRepo
	Professional *ProfessionalRepo
	Patient      *PatientRepo
	Appointment  *AppointmentRepo
	APIToken     *APITokenRepo
	User         *UserRepo
}

func newRepos(conn dialect.ExecQuerier) repos {
	return repos{
		Clinic:       &ClinicRepo{conn: conn},
		Membership:   &MembershipRepo{conn: conn},
		UserRole:     &UserRoleRepo{conn: conn},
		Professional: &ProfessionalRepo{conn: conn},
		Patient:      &PatientRepo{conn: conn},
		Appointment:  &AppointmentRepo{conn: conn},
		APIToken:     &APITokenRepo{conn: conn},
		User:         &UserRepo{conn: conn},
	}
}

// Client is the entry point to the store.
type Client struct {
	repos
	drv dialect.Driver
}

// NewClient wraps an ent SQL driver.
func NewClient(drv dialect.Driver) *Client {
	return &Client{repos: newRepos(drv), drv: drv}
}

// Open wraps an already opened *sql.DB.
func Open(db *sql.DB) *Client {
	return NewClient(entsql.OpenDB(dialect.Postgres, db))
}

func (c *Client) Driver() dialect.Driver { return c.drv }

func (c *Client) Close() error { return c.drv.Close() }

// Ping checks the underlying pool. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	rows := &entsql.Rows{}
	if err := c.drv.Query(ctx, "SELECT 1", []any{}, rows); err != nil {
		return err
	}
	return rows.Close()
}

// Tx is a transaction with the same repositories as Client.
type Tx struct {
	repos
	tx dialect.Tx
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Tx starts a transaction.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting a transaction: %w", err)
	}
	return &Tx{repos: newRepos(tx), tx: tx}, nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// execution helpers
// ---------------------------------------------------------------------------

type querier interface {
	Query() (string, []any)
}

// exec runs a statement and returns the number of affected rows.
func exec(ctx context.Context, conn dialect.ExecQuerier, q querier) (int64, error) {
	query, args := q.Query()
	var res sql.Result
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// query runs a select and calls scan once per row.
func query(ctx context.Context, conn dialect.ExecQuerier, q querier, scan func(*entsql.Rows) error) error {
	stmt, args := q.Query()
	rows := &entsql.Rows{}
	if err := conn.Query(ctx, stmt, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// queryOne is query for a single row; no row yields ErrNotFound.
func queryOne(ctx context.Context, conn dialect.ExecQuerier, q querier, scan func(*entsql.Rows) error) error {
	found := false
	err := query(ctx, conn, q, func(rows *entsql.Rows) error {
		if found {
			return nil
		}
		found = true
		return scan(rows)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// exists reports whether q returns at least one row.
func exists(ctx context.Context, conn dialect.ExecQuerier, q querier) (bool, error) {
	found := false
	err := query(ctx, conn, q, func(*entsql.Rows) error {
		found = true
		return nil
	})
	return found, err
}
