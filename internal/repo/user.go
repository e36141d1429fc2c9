package repo

import (
	"context"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type UserRepo struct {
	conn dialect.ExecQuerier
}

var userColumns = []string{"id", "email", "password_hash", "created_at", "updated_at"}

// NormalizeEmail is the canonical form stored in users.email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user. A taken email fails with a unique violation
// (see IsUniqueViolation).
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	u.Email = NormalizeEmail(u.Email)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := exec(ctx, r.conn, psql.Insert(TableUsers).
		Columns(userColumns...).
		Values(u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt))
	return err
}

func (r *UserRepo) CreateProfile(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = newID()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := exec(ctx, r.conn, psql.Insert(TableProfiles).
		Columns("id", "user_id", "full_name", "created_by", "created_at").
		Values(p.ID, p.UserID, p.FullName, p.CreatedBy, p.CreatedAt))
	return err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := queryOne(ctx, r.conn,
		psql.Select(userColumns...).From(psql.Table(TableUsers)).Where(entsql.EQ("email", NormalizeEmail(email))),
		func(rows *entsql.Rows) error {
			return rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
		},
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns the user joined with its profile.
func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*UserWithProfile, error) {
	u := psql.Table(TableUsers).As("u")
	p := psql.Table(TableProfiles).As("p")

	sel := psql.Select(
		u.C("id"), u.C("email"), u.C("password_hash"), u.C("created_at"), u.C("updated_at"),
		p.C("id"), p.C("full_name"), p.C("created_by"), p.C("created_at"),
	).
		From(u).
		LeftJoin(p).On(u.C("id"), p.C("user_id")).
		Where(entsql.EQ(u.C("id"), id))

	out := &UserWithProfile{}
	err := queryOne(ctx, r.conn, sel, func(rows *entsql.Rows) error {
		var (
			profileID        *uuid.UUID
			fullName         *string
			createdBy        *uuid.UUID
			profileCreatedAt *time.Time
		)
		if err := rows.Scan(
			&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt,
			&profileID, &fullName, &createdBy, &profileCreatedAt,
		); err != nil {
			return err
		}
		if profileID != nil {
			out.Profile = &Profile{ID: *profileID, UserID: out.ID, CreatedBy: createdBy}
			if fullName != nil {
				out.Profile.FullName = *fullName
			}
			if profileCreatedAt != nil {
				out.Profile.CreatedAt = *profileCreatedAt
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a user; profile, memberships, roles and tokens cascade.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableUsers).Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
