package constants

const (
	AppName = "clinicflow"

	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override,
	// e.g. CLINICFLOW_DATABASE_HOST overrides database.host.
	EnvPrefix = "CLINICFLOW"

	// HeaderClinicID selects the active clinic for multi-clinic users.
	HeaderClinicID = "X-Clinic-ID"

	// EventSubjectRoot is the first token of every published event subject.
	EventSubjectRoot = "clinicflow"

	DefaultProfessionalColor = "#3B82F6"
	DefaultPhoneRegion       = "BR"
)
