package repo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
)

// Membership kinds stored in user_clinics.role_type.
const (
	RoleTypeMaster = "master"
	RoleTypeMember = "member"
)

type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AdminClaimedBy *uuid.UUID `json:"-"`
}

// UserClinic is a user_clinics row: the membership link between a user and
// a clinic. It does not grant permissions by itself.
type UserClinic struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Role      string    `json:"role"`
	RoleType  string    `json:"role_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *UserClinic) IsMaster() bool { return m.RoleType == RoleTypeMaster }

// ClinicMembership is a membership joined with its clinic.
type ClinicMembership struct {
	UserClinic
	Clinic Clinic `json:"clinics"`
}

type UserRole struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"user_id"`
	ClinicID       uuid.UUID            `json:"clinic_id"`
	Role           authorize.ClinicRole `json:"role"`
	ProfessionalID *uuid.UUID           `json:"professional_id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type ProfileSummary struct {
	FullName  string     `json:"full_name"`
	CreatedBy *uuid.UUID `json:"created_by"`
}

// UserRoleWithProfile is a role row joined with the holder's profile.
// Profile is nil when the user has none.
type UserRoleWithProfile struct {
	UserRole
	Profile *ProfileSummary `json:"profile,omitempty"`
}

type Professional struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Patient struct {
	ID        uuid.UUID  `json:"id"`
	ClinicID  uuid.UUID  `json:"clinic_id"`
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email"`
	BirthDate *time.Time `json:"-"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BirthDateString formats BirthDate as YYYY-MM-DD.
func (p *Patient) BirthDateString() *string {
	if p.BirthDate == nil {
		return nil
	}
	s := p.BirthDate.Format(DateLayout)
	return &s
}

// MarshalJSON renders birth_date as a plain date.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		BirthDate *string `json:"birth_date"`
	}{alias(p), p.BirthDateString()})
}

// DateLayout is the wire format of date-only columns.
const DateLayout = "2006-01-02"

type Appointment struct {
	ID               uuid.UUID `json:"id"`
	ClinicID         uuid.UUID `json:"clinic_id"`
	PatientID        uuid.UUID `json:"patient_id"`
	ProfessionalID   uuid.UUID `json:"professional_id"`
	Title            string    `json:"title"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	AttendanceStatus string    `json:"attendance_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type PatientSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	CPF   string    `json:"cpf"`
	Email *string   `json:"email"`
	Phone *string   `json:"phone"`
}

type ProfessionalSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Color     string    `json:"color"`
}

// AppointmentDetail is an appointment joined with its participants.
type AppointmentDetail struct {
	Appointment
	Patient      PatientSummary      `json:"patients"`
	Professional ProfessionalSummary `json:"professionals"`
}

// AppointmentFilter narrows List. Zero values mean "no filter".
type AppointmentFilter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	Status         string
}

// APIToken never carries the plaintext; TokenHash stays server side.
type APIToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"-"`
	ClinicID   uuid.UUID  `json:"-"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	IsActive   bool       `json:"is_active"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Profile struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	FullName  string     `json:"full_name"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserWithProfile is a user joined with its profile, if any.
type UserWithProfile struct {
	User
	Profile *Profile `json:"profile"`
}
