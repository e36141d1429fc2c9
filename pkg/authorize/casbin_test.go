package authorize

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	"github.com/google/uuid"
)

// createTestEnforcer creates a file-backed Casbin enforcer for testing
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	e, err := NewFileEnforcer("", filepath.Join(t.TempDir(), "policy.csv"))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	e.EnableAutoSave(false)

	return e
}

func seededAuthorization(t *testing.T) IAuthorization {
	t.Helper()

	auth, err := NewAuthorization(createTestEnforcer(t))
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		e := createTestEnforcer(t)
		auth, err := NewAuthorization(e)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestDefaultMatrix(t *testing.T) {
	auth := seededAuthorization(t)
	ctx := context.Background()
	domain := ClinicDomain(uuid.NewString())

	tests := []struct {
		name     string
		role     Role
		object   Resource
		action   Action
		expected bool
	}{
		{"admin manages tokens", RoleClinicAdmin, ResourceAPIToken, ActionCreate, true},
		{"admin manages roles", RoleClinicAdmin, ResourceUserRole, ActionDelete, true},
		{"admin writes professionals", RoleClinicAdmin, ResourceProfessional, ActionCreate, true},
		{"professional creates appointment", RoleClinicProfessional, ResourceAppointment, ActionCreate, true},
		{"professional updates patient", RoleClinicProfessional, ResourcePatient, ActionUpdate, true},
		{"professional cannot delete patient", RoleClinicProfessional, ResourcePatient, ActionDelete, false},
		{"professional cannot write professionals", RoleClinicProfessional, ResourceProfessional, ActionUpdate, false},
		{"professional cannot issue tokens", RoleClinicProfessional, ResourceAPIToken, ActionCreate, false},
		{"receptionist deletes patient", RoleClinicReceptionist, ResourcePatient, ActionDelete, true},
		{"receptionist deletes appointment", RoleClinicReceptionist, ResourceAppointment, ActionDelete, true},
		{"receptionist reads professionals", RoleClinicReceptionist, ResourceProfessional, ActionRead, true},
		{"receptionist cannot issue tokens", RoleClinicReceptionist, ResourceAPIToken, ActionCreate, false},
		{"receptionist cannot list tokens", RoleClinicReceptionist, ResourceAPIToken, ActionRead, false},
		{"receptionist cannot provision users", RoleClinicReceptionist, ResourceUser, ActionCreate, false},
		{"receptionist cannot update clinic", RoleClinicReceptionist, ResourceClinic, ActionUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := auth.Enforce(ctx, tt.role, domain, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if allowed != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, allowed)
			}
		})
	}
}

func TestEnforceRejectsBadArguments(t *testing.T) {
	auth := seededAuthorization(t)
	ctx := context.Background()
	domain := ClinicDomain(uuid.NewString())

	tests := []struct {
		name   string
		role   Role
		domain Domain
		object Resource
		action Action
	}{
		{"empty role", "", domain, ResourcePatient, ActionRead},
		{"unknown role", Role("clinic:owner"), domain, ResourcePatient, ActionRead},
		{"wildcard domain", RoleClinicAdmin, WildcardDomain, ResourcePatient, ActionRead},
		{"malformed domain", RoleClinicAdmin, Domain("clinic:abc"), ResourcePatient, ActionRead},
		{"unknown resource", RoleClinicAdmin, domain, Resource("wallet"), ActionRead},
		{"unknown action", RoleClinicAdmin, domain, ResourcePatient, Action("archive")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Enforce(ctx, tt.role, tt.domain, tt.object, tt.action)
			if !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("Expected ErrInvalidArgs, got %v", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := seededAuthorization(t)
	ctx := context.Background()
	domain := ClinicDomain(uuid.NewString())

	t.Run("returns nil when allowed", func(t *testing.T) {
		if err := auth.MustEnforce(ctx, RoleClinicReceptionist, domain, ResourcePatient, ActionCreate); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})

	t.Run("returns ErrForbidden when denied", func(t *testing.T) {
		err := auth.MustEnforce(ctx, RoleClinicReceptionist, domain, ResourceUserRole, ActionUpdate)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}

func TestClinicScopedDeny(t *testing.T) {
	auth := seededAuthorization(t)
	ctx := context.Background()
	restricted := ClinicDomain(uuid.NewString())
	other := ClinicDomain(uuid.NewString())

	// one clinic forbids its receptionists from deleting patients
	if _, err := auth.AddPermission(ctx, RoleClinicReceptionist, restricted, ResourcePatient, ActionDelete, EffectDeny); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}

	allowed, _ := auth.Enforce(ctx, RoleClinicReceptionist, restricted, ResourcePatient, ActionDelete)
	if allowed {
		t.Error("Expected deny in restricted clinic")
	}
	allowed, _ = auth.Enforce(ctx, RoleClinicReceptionist, other, ResourcePatient, ActionDelete)
	if !allowed {
		t.Error("Expected allow in other clinic")
	}
}

func TestPermissionManagement(t *testing.T) {
	e := createTestEnforcer(t)
	auth, _ := NewAuthorization(e)
	ctx := context.Background()

	t.Run("add and remove permission", func(t *testing.T) {
		added, err := auth.AddPermission(ctx, RoleClinicProfessional, WildcardDomain, ResourcePatient, ActionDelete, EffectAllow)
		if err != nil || !added {
			t.Fatalf("AddPermission: added=%v err=%v", added, err)
		}

		removed, err := auth.RemovePermission(ctx, RoleClinicProfessional, WildcardDomain, ResourcePatient, ActionDelete, EffectAllow)
		if err != nil || !removed {
			t.Fatalf("RemovePermission: removed=%v err=%v", removed, err)
		}
	})

	t.Run("rejects invalid effect", func(t *testing.T) {
		_, err := auth.AddPermission(ctx, RoleClinicAdmin, WildcardDomain, ResourceUser, ActionRead, PolicyEffect("invalid"))
		if !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("Expected ErrInvalidArgs, got %v", err)
		}
	})
}

func TestParseClinicRole(t *testing.T) {
	for _, r := range ClinicRoles {
		got, err := ParseClinicRole(string(r))
		if err != nil {
			t.Fatalf("ParseClinicRole(%q): %v", r, err)
		}
		if got.Subject() == "" {
			t.Errorf("role %q has no casbin subject", r)
		}
		if _, ok := KnownRoles[got.Subject()]; !ok {
			t.Errorf("subject %q for %q is not a known role", got.Subject(), r)
		}
	}

	if _, err := ParseClinicRole("owner"); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("Expected ErrInvalidArgs, got %v", err)
	}
}
