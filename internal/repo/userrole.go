package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type UserRoleRepo struct {
	conn dialect.ExecQuerier
}

var userRoleColumns = []string{"id", "user_id", "clinic_id", "role", "professional_id", "created_at", "updated_at"}

func scanUserRole(rows *entsql.Rows, r *UserRole) error {
	return rows.Scan(&r.ID, &r.UserID, &r.ClinicID, &r.Role, &r.ProfessionalID, &r.CreatedAt, &r.UpdatedAt)
}

func (r *UserRoleRepo) Create(ctx context.Context, ur *UserRole) error {
	if ur.ID == uuid.Nil {
		ur.ID = newID()
	}
	now := time.Now().UTC()
	ur.CreatedAt, ur.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TableUserRoles).
		Columns(userRoleColumns...).
		Values(ur.ID, ur.UserID, ur.ClinicID, string(ur.Role), ur.ProfessionalID, ur.CreatedAt, ur.UpdatedAt))
	return err
}

func (r *UserRoleRepo) list(ctx context.Context, p *entsql.Predicate) ([]*UserRole, error) {
	var out []*UserRole
	err := query(ctx, r.conn,
		psql.Select(userRoleColumns...).From(psql.Table(TableUserRoles)).Where(p).OrderBy(entsql.Asc("created_at")),
		func(rows *entsql.Rows) error {
			ur := &UserRole{}
			if err := scanUserRole(rows, ur); err != nil {
				return err
			}
			out = append(out, ur)
			return nil
		},
	)
	return out, err
}

// ListByUser returns every role the user holds, across clinics.
func (r *UserRoleRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*UserRole, error) {
	return r.list(ctx, entsql.EQ("user_id", userID))
}

// GetForUser returns the user's role in a clinic.
func (r *UserRoleRepo) GetForUser(ctx context.Context, userID, clinicID uuid.UUID) (*UserRole, error) {
	ur := &UserRole{}
	err := queryOne(ctx, r.conn,
		psql.Select(userRoleColumns...).From(psql.Table(TableUserRoles)).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("clinic_id", clinicID))),
		func(rows *entsql.Rows) error { return scanUserRole(rows, ur) },
	)
	if err != nil {
		return nil, err
	}
	return ur, nil
}

func (r *UserRoleRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*UserRole, error) {
	ur := &UserRole{}
	err := queryOne(ctx, r.conn,
		psql.Select(userRoleColumns...).From(psql.Table(TableUserRoles)).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))),
		func(rows *entsql.Rows) error { return scanUserRole(rows, ur) },
	)
	if err != nil {
		return nil, err
	}
	return ur, nil
}

// ListByClinic returns the clinic's roles joined with each holder's profile.
func (r *UserRoleRepo) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*UserRoleWithProfile, error) {
	ur := psql.Table(TableUserRoles).As("ur")
	p := psql.Table(TableProfiles).As("p")

	sel := psql.Select(
		ur.C("id"), ur.C("user_id"), ur.C("clinic_id"), ur.C("role"), ur.C("professional_id"), ur.C("created_at"), ur.C("updated_at"),
		p.C("full_name"), p.C("created_by"),
	).
		From(ur).
		LeftJoin(p).On(ur.C("user_id"), p.C("user_id")).
		Where(entsql.EQ(ur.C("clinic_id"), clinicID)).
		OrderBy(entsql.Asc(ur.C("created_at")))

	var out []*UserRoleWithProfile
	err := query(ctx, r.conn, sel, func(rows *entsql.Rows) error {
		var (
			row       = &UserRoleWithProfile{}
			fullName  *string
			createdBy *uuid.UUID
		)
		if err := rows.Scan(
			&row.ID, &row.UserID, &row.ClinicID, &row.Role, &row.ProfessionalID, &row.CreatedAt, &row.UpdatedAt,
			&fullName, &createdBy,
		); err != nil {
			return err
		}
		if fullName != nil {
			row.Profile = &ProfileSummary{FullName: *fullName, CreatedBy: createdBy}
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// Update writes role and professional_id of a role inside its clinic.
func (r *UserRoleRepo) Update(ctx context.Context, ur *UserRole) error {
	ur.UpdatedAt = time.Now().UTC()
	n, err := exec(ctx, r.conn, psql.Update(TableUserRoles).
		Set("role", string(ur.Role)).
		Set("professional_id", ur.ProfessionalID).
		Set("updated_at", ur.UpdatedAt).
		Where(entsql.And(entsql.EQ("id", ur.ID), entsql.EQ("clinic_id", ur.ClinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRoleRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableUserRoles).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("clinic_id", clinicID))))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
