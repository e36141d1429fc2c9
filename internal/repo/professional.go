package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type ProfessionalRepo struct {
	conn dialect.ExecQuerier
}

var professionalColumns = []string{"id", "clinic_id", "name", "specialty", "color", "created_at", "updated_at"}

func scanProfessional(rows *entsql.Rows, p *Professional) error {
	return rows.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Specialty, &p.Color, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProfessionalRepo) List(ctx context.Context, clinicID uuid.UUID) ([]*Professional, error) {
	var out []*Professional
	err := query(ctx, r.conn,
		psql.Select(professionalColumns...).From(psql.Table(TableProfessionals)).
			Where(entsql.EQ("clinic_id", clinicID)).
			OrderBy(entsql.Asc("name")),
		func(rows *entsql.Rows) error {
			p := &Professional{}
			if err := scanProfessional(rows, p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		},
	)
	return out, err
}

func (r *ProfessionalRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*Professional, error) {
	p := &Professional{}
	err := queryOne(ctx, r.conn,
		psql.Select(professionalColumns...).From(psql.Table(TableProfessionals)).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))),
		func(rows *entsql.Rows) error { return scanProfessional(rows, p) },
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Exists reports whether id is a professional of clinicID.
func (r *ProfessionalRepo) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	return exists(ctx, r.conn, psql.Select("id").From(psql.Table(TableProfessionals)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
}

func (r *ProfessionalRepo) Create(ctx context.Context, p *Professional) error {
	if p.ID == uuid.Nil {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TableProfessionals).
		Columns(professionalColumns...).
		Values(p.ID, p.ClinicID, p.Name, p.Specialty, p.Color, p.CreatedAt, p.UpdatedAt))
	return err
}

func (r *ProfessionalRepo) Update(ctx context.Context, p *Professional) error {
	p.UpdatedAt = time.Now().UTC()
	n, err := exec(ctx, r.conn, psql.Update(TableProfessionals).
		Set("name", p.Name).
		Set("specialty", p.Specialty).
		Set("color", p.Color).
		Set("updated_at", p.UpdatedAt).
		Where(entsql.And(entsql.EQ("id", p.ID), entsql.EQ("clinic_id", p.ClinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfessionalRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableProfessionals).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
