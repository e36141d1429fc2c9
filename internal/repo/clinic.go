package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type ClinicRepo struct {
	conn dialect.ExecQuerier
}

var clinicColumns = []string{"id", "name", "address", "admin_claimed_by", "created_at", "updated_at"}

func scanClinic(rows *entsql.Rows, c *Clinic) error {
	return rows.Scan(&c.ID, &c.Name, &c.Address, &c.AdminClaimedBy, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ClinicRepo) Create(ctx context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = newID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TableClinics).
		Columns("id", "name", "address", "created_at", "updated_at").
		Values(c.ID, c.Name, c.Address, c.CreatedAt, c.UpdatedAt))
	return err
}

func (r *ClinicRepo) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c := &Clinic{}
	err := queryOne(ctx, r.conn,
		psql.Select(clinicColumns...).From(psql.Table(TableClinics)).Where(entsql.EQ("id", id)),
		func(rows *entsql.Rows) error { return scanClinic(rows, c) },
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Update writes name and address.
func (r *ClinicRepo) Update(ctx context.Context, c *Clinic) error {
	c.UpdatedAt = time.Now().UTC()
	n, err := exec(ctx, r.conn, psql.Update(TableClinics).
		Set("name", c.Name).
		Set("address", c.Address).
		Set("updated_at", c.UpdatedAt).
		Where(entsql.EQ("id", c.ID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClinicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableClinics).Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// claimAdmin marks userID as the clinic's admin claimant, but only if nobody
// has claimed it and the clinic has no roles at all. The conditional UPDATE
// takes the clinic row lock, so concurrent claimers are serialized and at
// most one of them sees a row affected.
func (r *ClinicRepo) claimAdmin(ctx context.Context, clinicID, userID uuid.UUID) (bool, error) {
	anyRole := psql.Select("id").
		From(psql.Table(TableUserRoles)).
		Where(entsql.EQ("clinic_id", clinicID))

	n, err := exec(ctx, r.conn, psql.Update(TableClinics).
		Set("admin_claimed_by", userID).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", clinicID),
			entsql.IsNull("admin_claimed_by"),
			entsql.NotExists(anyRole),
		)))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
