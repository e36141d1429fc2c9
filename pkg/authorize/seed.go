package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the permission matrix every clinic starts with.
// Per-clinic overrides can be added with a clinic:<uuid> domain.
func DefaultPolicies() []PermissionPolicy {
	crud := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

	policies := []PermissionPolicy{
		// clinic_admin: everything inside its clinic
		{RoleClinicAdmin, WildcardDomain, WildcardResource, WildcardAction, EffectAllow},
	}

	// professional: own appointments (narrowed by the appointment service),
	// patient records without delete, read access to staff and clinic
	for _, a := range crud {
		policies = append(policies, PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourceAppointment, a, EffectAllow})
	}
	policies = append(policies,
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourcePatient, ActionCreate, EffectAllow},
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourcePatient, ActionRead, EffectAllow},
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourcePatient, ActionUpdate, EffectAllow},
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourceProfessional, ActionRead, EffectAllow},
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourceClinic, ActionRead, EffectAllow},
		PermissionPolicy{RoleClinicProfessional, WildcardDomain, ResourceEvent, ActionRead, EffectAllow},
	)

	// receptionist: front desk
	for _, a := range crud {
		policies = append(policies,
			PermissionPolicy{RoleClinicReceptionist, WildcardDomain, ResourceAppointment, a, EffectAllow},
			PermissionPolicy{RoleClinicReceptionist, WildcardDomain, ResourcePatient, a, EffectAllow},
		)
	}
	policies = append(policies,
		PermissionPolicy{RoleClinicReceptionist, WildcardDomain, ResourceProfessional, ActionRead, EffectAllow},
		PermissionPolicy{RoleClinicReceptionist, WildcardDomain, ResourceClinic, ActionRead, EffectAllow},
		PermissionPolicy{RoleClinicReceptionist, WildcardDomain, ResourceEvent, ActionRead, EffectAllow},
	)

	return policies
}

// SeedDefaultPolicies sets up the baseline RBAC policies. Existing rows are
// left alone, so it is safe to run on every start.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "domain", p.Domain, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}
