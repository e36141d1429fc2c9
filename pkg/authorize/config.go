package authorize

import "github.com/Alijeyrad/clinicflow_backend/config"

type Config struct {
	// Empty selects DefaultModel.
	CasbinModelPath string

	// Non-empty switches from the policy database to a CSV file.
	PolicyFile string

	EnableAudit bool
	SeedOnStart bool

	// Readiness fails while a watcher-triggered reload is failing.
	HealthCheckEnabled bool
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config(c)
}
