package authorize

import (
	"strings"

	"github.com/google/uuid"
)

// Casbin tuple vocabulary. A request is enforced as (role, domain, resource,
// action); the role comes from the caller's user_roles row in the clinic.
type (
	Action   string
	Resource string
	Role     string
	Domain   string
)

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	WildcardAction Action = "*"
)

const (
	ResourceClinic       Resource = "clinic"
	ResourceUserRole     Resource = "user_role"
	ResourceUser         Resource = "user"
	ResourceAPIToken     Resource = "api_token"
	ResourceProfessional Resource = "professional"
	ResourcePatient      Resource = "patient"
	ResourceAppointment  Resource = "appointment"
	ResourceEvent        Resource = "event"

	WildcardResource Resource = "*"
)

const (
	RoleClinicAdmin        Role = "clinic:admin"
	RoleClinicProfessional Role = "clinic:professional"
	RoleClinicReceptionist Role = "clinic:receptionist"

	WildcardRole Role = "*"
)

// Domains are "clinic:<uuid>"; seeded policies use the wildcard so one
// matrix serves every clinic.
const (
	DomainPrefixClinic Domain = "clinic:"
	WildcardDomain     Domain = "*"
)

var (
	KnownActions = setOf(ActionCreate, ActionRead, ActionUpdate, ActionDelete)

	KnownResources = setOf(
		ResourceClinic, ResourceUserRole, ResourceUser, ResourceAPIToken,
		ResourceProfessional, ResourcePatient, ResourceAppointment, ResourceEvent,
	)

	KnownRoles = setOf(RoleClinicAdmin, RoleClinicProfessional, RoleClinicReceptionist)
)

func setOf[T comparable](vs ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

func ClinicDomain(clinicID string) Domain {
	return DomainPrefixClinic + Domain(clinicID)
}

// IsValidDomain accepts the wildcard or a clinic domain carrying a UUID.
func IsValidDomain(d Domain) bool {
	if d == WildcardDomain {
		return true
	}
	id, ok := strings.CutPrefix(string(d), string(DomainPrefixClinic))
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// PermissionPolicy is one "p" row: role, domain, resource, action, effect.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
