package email

import (
	"fmt"
	"html"
	"strings"
)

// WelcomeEmailData is rendered into the message sent to a user created by a
// clinic admin.
type WelcomeEmailData struct {
	FullName   string
	Email      string
	ClinicName string
	Role       string
	AppName    string
	BaseURL    string
	Color      string
}

// BuildClinicUserWelcomeEmail never includes the password; the admin hands
// it over out of band.
func BuildClinicUserWelcomeEmail(data WelcomeEmailData) Message {
	appName := firstNonEmpty(data.AppName, "ClinicFlow")
	name := firstNonEmpty(data.FullName, data.Email)
	clinic := firstNonEmpty(data.ClinicName, "your clinic")
	role := strings.ReplaceAll(data.Role, "_", " ")
	color := firstNonEmpty(data.Color, "#3B82F6")
	loginURL := strings.TrimRight(data.BaseURL, "/") + "/login"

	subject := fmt.Sprintf("You now have access to %s on %s", clinic, appName)

	text := fmt.Sprintf(`Hi %s,

An administrator of %s created an account for you on %s with the role %s.

Sign in with %s at:
%s

The %s Team`,
		name, clinic, appName, role, data.Email, loginURL, appName)

	esc := html.EscapeString
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: %s;">Hi %s,</h2>
    <p>An administrator of <strong>%s</strong> created an account for you on %s with the role <strong>%s</strong>.</p>
    <p>Sign in with <strong>%s</strong>:</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Sign in</a>
    </p>
    <p>The %s Team</p>
</body>
</html>`,
		esc(color), esc(name), esc(clinic), esc(appName), esc(role),
		esc(data.Email), esc(loginURL), esc(color), esc(appName))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
