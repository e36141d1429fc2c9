package repo

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type APITokenRepo struct {
	conn dialect.ExecQuerier
}

var apiTokenColumns = []string{"id", "user_id", "clinic_id", "name", "token_hash", "created_at", "last_used_at", "expires_at", "is_active"}

func scanAPIToken(rows *entsql.Rows, t *APIToken) error {
	return rows.Scan(&t.ID, &t.UserID, &t.ClinicID, &t.Name, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt, &t.ExpiresAt, &t.IsActive)
}

func (r *APITokenRepo) Create(ctx context.Context, t *APIToken) error {
	if t.ID == uuid.Nil {
		t.ID = newID()
	}
	t.CreatedAt = time.Now().UTC()
	t.IsActive = true

	_, err := exec(ctx, r.conn, psql.Insert(TableAPITokens).
		Columns(apiTokenColumns...).
		Values(t.ID, t.UserID, t.ClinicID, t.Name, t.TokenHash, t.CreatedAt, t.LastUsedAt, t.ExpiresAt, t.IsActive))
	return err
}

// GetByHash looks a token up through the unique token_hash index.
func (r *APITokenRepo) GetByHash(ctx context.Context, hash string) (*APIToken, error) {
	t := &APIToken{}
	err := queryOne(ctx, r.conn,
		psql.Select(apiTokenColumns...).From(psql.Table(TableAPITokens)).Where(entsql.EQ("token_hash", hash)),
		func(rows *entsql.Rows) error { return scanAPIToken(rows, t) },
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *APITokenRepo) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := exec(ctx, r.conn, psql.Update(TableAPITokens).
		Set("last_used_at", at).
		Where(entsql.EQ("id", id)))
	return err
}

// List returns the user's tokens for a clinic, newest first.
func (r *APITokenRepo) List(ctx context.Context, userID, clinicID uuid.UUID) ([]*APIToken, error) {
	var out []*APIToken
	err := query(ctx, r.conn,
		psql.Select(apiTokenColumns...).From(psql.Table(TableAPITokens)).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("clinic_id", clinicID))).
			OrderBy(entsql.Desc("created_at")),
		func(rows *entsql.Rows) error {
			t := &APIToken{}
			if err := scanAPIToken(rows, t); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		},
	)
	return out, err
}

// Delete removes a token only when it belongs to userID in clinicID.
func (r *APITokenRepo) Delete(ctx context.Context, userID, clinicID, id uuid.UUID) error {
	n, err := exec(ctx, r.conn, psql.Delete(TableAPITokens).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("user_id", userID),
			entsql.EQ("clinic_id", clinicID),
		)))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
