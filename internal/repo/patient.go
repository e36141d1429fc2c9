package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type PatientRepo struct {
	conn dialect.ExecQuerier
}

var patientColumns = []string{"id", "clinic_id", "name", "cpf", "phone", "email", "birth_date", "notes", "created_at", "updated_at"}

func scanPatient(rows *entsql.Rows, p *Patient) error {
	return rows.Scan(&p.ID, &p.ClinicID, &p.Name, &p.CPF, &p.Phone, &p.Email, &p.BirthDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
}

// List returns the clinic's patients, newest first.
func (r *PatientRepo) List(ctx context.Context, clinicID uuid.UUID) ([]*Patient, error) {
	var out []*Patient
	err := query(ctx, r.conn,
		psql.Select(patientColumns...).From(psql.Table(TablePatients)).
			Where(entsql.EQ("clinic_id", clinicID)).
			OrderBy(entsql.Desc("created_at")),
		func(rows *entsql.Rows) error {
			p := &Patient{}
			if err := scanPatient(rows, p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		},
	)
	return out, err
}

func (r *PatientRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	p := &Patient{}
	err := queryOne(ctx, r.conn,
		psql.Select(patientColumns...).From(psql.Table(TablePatients)).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))),
		func(rows *entsql.Rows) error { return scanPatient(rows, p) },
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Exists reports whether id is a patient of clinicID.
func (r *PatientRepo) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	return exists(ctx, r.conn, psql.Select("id").From(psql.Table(TablePatients)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
}

// CountByCPF counts the clinic's patients registered with cpf.
func (r *PatientRepo) CountByCPF(ctx context.Context, clinicID uuid.UUID, cpf string) (int, error) {
	var n int
	err := query(ctx, r.conn,
		psql.Select("id").From(psql.Table(TablePatients)).
			Where(entsql.And(entsql.EQ("clinic_id", clinicID), entsql.EQ("cpf", cpf))),
		func(*entsql.Rows) error {
			n++
			return nil
		},
	)
	return n, err
}

func (r *PatientRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TablePatients).
		Columns(patientColumns...).
		Values(p.ID, p.ClinicID, p.Name, p.CPF, p.Phone, p.Email, p.BirthDate, p.Notes, p.CreatedAt, p.UpdatedAt))
	return err
}

// Update replaces every editable column.
func (r *PatientRepo) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	n, err := exec(ctx, r.conn, psql.Update(TablePatients).
		Set("name", p.Name).
		Set("cpf", p.CPF).
		Set("phone", p.Phone).
		Set("email", p.Email).
		Set("birth_date", p.BirthDate).
		Set("notes", p.Notes).
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

func (r *PatientRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TablePatients).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
