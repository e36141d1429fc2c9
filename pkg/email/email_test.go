package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

func TestBuildClinicUserWelcomeEmail(t *testing.T) {
	m := BuildClinicUserWelcomeEmail(WelcomeEmailData{
		FullName:   "Ana <b>Souza</b>",
		Email:      "ana@clinic.com",
		ClinicName: "Clínica Sol",
		Role:       "clinic_admin",
		BaseURL:    "https://app.example.com/",
	})

	assert.Equal(t, []string{"ana@clinic.com"}, m.To)
	assert.Equal(t, "You now have access to Clínica Sol on ClinicFlow", m.Subject)
	assert.Contains(t, m.TextBody, "https://app.example.com/login")
	assert.Contains(t, m.TextBody, "clinic admin")
	assert.Contains(t, m.HTMLBody, "Ana &lt;b&gt;Souza&lt;/b&gt;")
	assert.NotContains(t, m.HTMLBody, "<b>Souza</b>")
}

func TestBuildMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		from string
		msg  Message
	}{
		{"missing from", "", Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"}},
		{"missing recipient", "no-reply@clinic.com", Message{To: []string{" "}, Subject: "s", TextBody: "b"}},
		{"missing subject", "no-reply@clinic.com", Message{To: []string{"a@b.c"}, TextBody: "b"}},
		{"blank body", "no-reply@clinic.com", Message{To: []string{"a@b.c"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render(tt.from, tt.msg)
			var invalid *InvalidMessageError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestSendDisabled(t *testing.T) {
	err := New(DefaultConfig()).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRenderTrimsRecipients(t *testing.T) {
	msg, err := render(" no-reply@clinic.com ", Message{
		To:       []string{" ana@clinic.com", ""},
		Subject:  " Acesso ",
		TextBody: "ola",
		HTMLBody: "<p>ola</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"no-reply@clinic.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"ana@clinic.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Acesso"}, msg.GetHeader("Subject"))
}

func TestFromCentralConfig(t *testing.T) {
	cfg := FromCentralConfig(config.EmailConfig{
		Enabled: true,
		From:    "no-reply@clinic.com",
		BaseURL: "https://app.example.com",
		SMTP:    config.SMTPConfig{Host: "smtp.example.com", Port: 465, UseTLS: true},
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, "ClinicFlow", cfg.Brand.AppName)
	assert.Equal(t, "https://app.example.com", cfg.Brand.BaseURL)
	assert.Equal(t, defaultSMTPTimeout, cfg.SMTPTimeout())
}
