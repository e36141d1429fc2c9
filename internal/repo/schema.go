package repo

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	TableClinics       = "clinics"
	TableUserClinics   = "user_clinics"
	TableUserRoles     = "user_roles"
	TableProfessionals = "professionals"
	TablePatients      = "patients"
	TableAppointments  = "appointments"
	TableAPITokens     = "api_tokens"
	TableUsers         = "users"
	TableProfiles      = "profiles"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       TableUsers,
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// ProfilesColumns holds the columns for the "profiles" table.
	ProfilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID, Unique: true},
		{Name: "full_name", Type: field.TypeString},
		{Name: "created_by", Type: field.TypeUUID, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	ProfilesTable = &schema.Table{
		Name:       TableProfiles,
		Columns:    ProfilesColumns,
		PrimaryKey: []*schema.Column{ProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "profiles_users_profile",
				Columns:    []*schema.Column{ProfilesColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// ClinicsColumns holds the columns for the "clinics" table.
	ClinicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "address", Type: field.TypeString, Nullable: true},
		{Name: "admin_claimed_by", Type: field.TypeUUID, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ClinicsTable = &schema.Table{
		Name:       TableClinics,
		Columns:    ClinicsColumns,
		PrimaryKey: []*schema.Column{ClinicsColumns[0]},
	}

	// UserClinicsColumns holds the columns for the "user_clinics" table.
	UserClinicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "role", Type: field.TypeString, Default: "admin"},
		{Name: "role_type", Type: field.TypeEnum, Enums: []string{RoleTypeMaster, RoleTypeMember}},
		{Name: "created_at", Type: field.TypeTime},
	}
	UserClinicsTable = &schema.Table{
		Name:       TableUserClinics,
		Columns:    UserClinicsColumns,
		PrimaryKey: []*schema.Column{UserClinicsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_clinics_users_memberships",
				Columns:    []*schema.Column{UserClinicsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_clinics_clinics_memberships",
				Columns:    []*schema.Column{UserClinicsColumns[2]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "userclinic_user_id_clinic_id",
				Unique:  true,
				Columns: []*schema.Column{UserClinicsColumns[1], UserClinicsColumns[2]},
			},
			{
				Name:       "userclinic_clinic_id_master",
				Unique:     true,
				Columns:    []*schema.Column{UserClinicsColumns[2]},
				Annotation: &entsql.IndexAnnotation{Where: "role_type = 'master'"},
			},
		},
	}

	// ProfessionalsColumns holds the columns for the "professionals" table.
	ProfessionalsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "specialty", Type: field.TypeString},
		{Name: "color", Type: field.TypeString, Size: 7, Default: "#3B82F6"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ProfessionalsTable = &schema.Table{
		Name:       TableProfessionals,
		Columns:    ProfessionalsColumns,
		PrimaryKey: []*schema.Column{ProfessionalsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "professionals_clinics_professionals",
				Columns:    []*schema.Column{ProfessionalsColumns[1]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "professional_clinic_id", Columns: []*schema.Column{ProfessionalsColumns[1]}},
		},
	}

	// UserRolesColumns holds the columns for the "user_roles" table.
	UserRolesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "role", Type: field.TypeEnum, Enums: []string{"clinic_admin", "professional", "receptionist"}},
		{Name: "professional_id", Type: field.TypeUUID, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UserRolesTable = &schema.Table{
		Name:       TableUserRoles,
		Columns:    UserRolesColumns,
		PrimaryKey: []*schema.Column{UserRolesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_roles_users_roles",
				Columns:    []*schema.Column{UserRolesColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_roles_clinics_roles",
				Columns:    []*schema.Column{UserRolesColumns[2]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_roles_professionals_roles",
				Columns:    []*schema.Column{UserRolesColumns[4]},
				RefColumns: []*schema.Column{ProfessionalsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "userrole_user_id_clinic_id",
				Unique:  true,
				Columns: []*schema.Column{UserRolesColumns[1], UserRolesColumns[2]},
			},
			{Name: "userrole_clinic_id", Columns: []*schema.Column{UserRolesColumns[2]}},
		},
	}

	// PatientsColumns holds the columns for the "patients" table.
	PatientsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "cpf", Type: field.TypeString, Size: 14},
		{Name: "phone", Type: field.TypeString, Nullable: true},
		{Name: "email", Type: field.TypeString, Nullable: true},
		{Name: "birth_date", Type: field.TypeTime, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "date"}},
		{Name: "notes", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	PatientsTable = &schema.Table{
		Name:       TablePatients,
		Columns:    PatientsColumns,
		PrimaryKey: []*schema.Column{PatientsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "patients_clinics_patients",
				Columns:    []*schema.Column{PatientsColumns[1]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "patient_clinic_id_cpf", Columns: []*schema.Column{PatientsColumns[1], PatientsColumns[3]}},
		},
	}

	// AppointmentsColumns holds the columns for the "appointments" table.
	AppointmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "patient_id", Type: field.TypeUUID},
		{Name: "professional_id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime},
		{Name: "status", Type: field.TypeString, Default: "scheduled"},
		{Name: "attendance_status", Type: field.TypeEnum, Enums: []string{"scheduled", "attended", "no_show", "cancelled", "rescheduled"}, Default: "scheduled"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	AppointmentsTable = &schema.Table{
		Name:       TableAppointments,
		Columns:    AppointmentsColumns,
		PrimaryKey: []*schema.Column{AppointmentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "appointments_clinics_appointments",
				Columns:    []*schema.Column{AppointmentsColumns[1]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "appointments_patients_appointments",
				Columns:    []*schema.Column{AppointmentsColumns[2]},
				RefColumns: []*schema.Column{PatientsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "appointments_professionals_appointments",
				Columns:    []*schema.Column{AppointmentsColumns[3]},
				RefColumns: []*schema.Column{ProfessionalsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "appointment_clinic_id_start_time", Columns: []*schema.Column{AppointmentsColumns[1], AppointmentsColumns[5]}},
			{Name: "appointment_professional_id", Columns: []*schema.Column{AppointmentsColumns[3]}},
		},
	}

	// APITokensColumns holds the columns for the "api_tokens" table.
	APITokensColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "clinic_id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "token_hash", Type: field.TypeString, Size: 64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "last_used_at", Type: field.TypeTime, Nullable: true},
		{Name: "expires_at", Type: field.TypeTime, Nullable: true},
		{Name: "is_active", Type: field.TypeBool, Default: true},
	}
	APITokensTable = &schema.Table{
		Name:       TableAPITokens,
		Columns:    APITokensColumns,
		PrimaryKey: []*schema.Column{APITokensColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "api_tokens_users_api_tokens",
				Columns:    []*schema.Column{APITokensColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "api_tokens_clinics_api_tokens",
				Columns:    []*schema.Column{APITokensColumns[2]},
				RefColumns: []*schema.Column{ClinicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "apitoken_user_id_clinic_id", Columns: []*schema.Column{APITokensColumns[1], APITokensColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		UsersTable,
		ProfilesTable,
		ClinicsTable,
		UserClinicsTable,
		ProfessionalsTable,
		UserRolesTable,
		PatientsTable,
		AppointmentsTable,
		APITokensTable,
	}
)

func init() {
	ProfilesTable.ForeignKeys[0].RefTable = UsersTable
	UserClinicsTable.ForeignKeys[0].RefTable = UsersTable
	UserClinicsTable.ForeignKeys[1].RefTable = ClinicsTable
	ProfessionalsTable.ForeignKeys[0].RefTable = ClinicsTable
	UserRolesTable.ForeignKeys[0].RefTable = UsersTable
	UserRolesTable.ForeignKeys[1].RefTable = ClinicsTable
	UserRolesTable.ForeignKeys[2].RefTable = ProfessionalsTable
	PatientsTable.ForeignKeys[0].RefTable = ClinicsTable
	AppointmentsTable.ForeignKeys[0].RefTable = ClinicsTable
	AppointmentsTable.ForeignKeys[1].RefTable = PatientsTable
	AppointmentsTable.ForeignKeys[2].RefTable = ProfessionalsTable
	APITokensTable.ForeignKeys[0].RefTable = UsersTable
	APITokensTable.ForeignKeys[1].RefTable = ClinicsTable
}

// Migrate creates or updates every table. Columns and indexes are only added,
// never dropped.
func (c *Client) Migrate(ctx context.Context, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(c.drv, opts...)
	if err != nil {
		return fmt.Errorf("repo: create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("repo: migrate: %w", err)
	}
	return nil
}
