package email

import (
	"time"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
)

const defaultSMTPTimeout = 30 * time.Second

type Config struct {
	// Send returns ErrDisabled while false.
	Enabled bool
	From    string
	SMTP    config.SMTPConfig
	Brand   Brand
}

// Brand is what the message templates show for the product.
type Brand struct {
	AppName string
	BaseURL string
	Color   string
}

func DefaultConfig() Config {
	return Config{
		SMTP:  config.SMTPConfig{Port: 587, UseTLS: true},
		Brand: Brand{AppName: "ClinicFlow", Color: constants.DefaultProfessionalColor},
	}
}

func (c Config) SMTPTimeout() time.Duration {
	if c.SMTP.TimeoutSeconds <= 0 {
		return defaultSMTPTimeout
	}
	return time.Duration(c.SMTP.TimeoutSeconds) * time.Second
}

func FromCentralConfig(c config.EmailConfig) Config {
	out := DefaultConfig()
	out.Enabled = c.Enabled
	out.From = c.From
	out.SMTP = c.SMTP
	out.Brand.BaseURL = c.BaseURL
	if c.AppName != "" {
		out.Brand.AppName = c.AppName
	}
	return out
}
