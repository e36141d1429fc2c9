package authorize

import (
	"fmt"
	"strings"
)

// ClinicRole is the role value stored in user_roles.role.
type ClinicRole string

const (
	ClinicRoleAdmin        ClinicRole = "clinic_admin"
	ClinicRoleProfessional ClinicRole = "professional"
	ClinicRoleReceptionist ClinicRole = "receptionist"
)

// ClinicRoles lists every assignable role, most privileged first.
var ClinicRoles = []ClinicRole{ClinicRoleAdmin, ClinicRoleProfessional, ClinicRoleReceptionist}

// ParseClinicRole validates s against the closed role set.
func ParseClinicRole(s string) (ClinicRole, error) {
	r := ClinicRole(strings.TrimSpace(s))
	switch r {
	case ClinicRoleAdmin, ClinicRoleProfessional, ClinicRoleReceptionist:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown clinic role %q", ErrInvalidArgs, s)
}

// Subject maps a stored role to its casbin policy subject.
func (r ClinicRole) Subject() Role {
	switch r {
	case ClinicRoleAdmin:
		return RoleClinicAdmin
	case ClinicRoleProfessional:
		return RoleClinicProfessional
	case ClinicRoleReceptionist:
		return RoleClinicReceptionist
	}
	return ""
}

func (r ClinicRole) Valid() bool { return r.Subject() != "" }

func (r ClinicRole) String() string { return string(r) }
