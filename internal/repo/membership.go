package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type MembershipRepo struct {
	conn dialect.ExecQuerier
}

func (r *MembershipRepo) Create(ctx context.Context, m *UserClinic) error {
	if m.ID == uuid.Nil {
		m.ID = newID()
	}
	if m.Role == "" {
		m.Role = "admin"
	}
	m.CreatedAt = time.Now().UTC()

	_, err := exec(ctx, r.conn, psql.Insert(TableUserClinics).
		Columns("id", "user_id", "clinic_id", "role", "role_type", "created_at").
		Values(m.ID, m.UserID, m.ClinicID, m.Role, m.RoleType, m.CreatedAt))
	return err
}

// ListByUser returns the user's memberships joined with their clinics,
// oldest first.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ClinicMembership, error) {
	uc := psql.Table(TableUserClinics).As("uc")
	c := psql.Table(TableClinics).As("c")

	sel := psql.Select(
		uc.C("id"), uc.C("user_id"), uc.C("clinic_id"), uc.C("role"), uc.C("role_type"), uc.C("created_at"),
		c.C("id"), c.C("name"), c.C("address"), c.C("admin_claimed_by"), c.C("created_at"), c.C("updated_at"),
	).
		From(uc).
		Join(c).On(uc.C("clinic_id"), c.C("id")).
		Where(entsql.EQ(uc.C("user_id"), userID)).
		OrderBy(entsql.Asc(uc.C("created_at")), entsql.Asc(uc.C("id")))

	var out []*ClinicMembership
	err := query(ctx, r.conn, sel, func(rows *entsql.Rows) error {
		m := &ClinicMembership{}
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ClinicID, &m.Role, &m.RoleType, &m.CreatedAt,
			&m.Clinic.ID, &m.Clinic.Name, &m.Clinic.Address, &m.Clinic.AdminClaimedBy, &m.Clinic.CreatedAt, &m.Clinic.UpdatedAt,
		); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (r *MembershipRepo) Get(ctx context.Context, userID, clinicID uuid.UUID) (*UserClinic, error) {
	m := &UserClinic{}
	err := queryOne(ctx, r.conn,
		psql.Select("id", "user_id", "clinic_id", "role", "role_type", "created_at").
			From(psql.Table(TableUserClinics)).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("clinic_id", clinicID))),
		func(rows *entsql.Rows) error {
			return rows.Scan(&m.ID, &m.UserID, &m.ClinicID, &m.Role, &m.RoleType, &m.CreatedAt)
		},
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
