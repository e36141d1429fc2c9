package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

// ClaimClinicAdmin promotes userID to clinic_admin of a clinic that has no
// roles yet. The claim and the role insert commit together; when another
// caller got there first, or the clinic already has roles, it returns
// ErrAdminClaimed and writes nothing.
func (c *Client) ClaimClinicAdmin(ctx context.Context, clinicID, userID uuid.UUID) (*UserRole, error) {
	var role *UserRole
	err := c.WithTx(ctx, func(tx *Tx) error {
		claimed, err := tx.Clinic.claimAdmin(ctx, clinicID, userID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrAdminClaimed
		}
		role = &UserRole{
			UserID:   userID,
			ClinicID: clinicID,
			Role:     authorize.ClinicRoleAdmin,
		}
		return tx.UserRole.Create(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}
