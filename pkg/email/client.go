// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

var ErrDisabled = errors.New("email: disabled")

// InvalidMessageError names the first problem found in a Message.
type InvalidMessageError struct{ Reason string }

func (e *InvalidMessageError) Error() string { return "email: invalid message: " + e.Reason }

type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers one message. Client implements it over SMTP.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Client struct {
	cfg    Config
	dialer *gomail.Dialer
}

var _ Sender = (*Client)(nil)

func NewFromCentral(cfg config.EmailConfig) *Client {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) *Client {
	d := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	d.SSL = cfg.SMTP.UseTLS
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTP.Host, MinVersion: tls.VersionTLS12}
	return &Client{cfg: cfg, dialer: d}
}

func (c *Client) Config() Config { return c.cfg }

// Send gives up at the earlier of the context deadline and the SMTP
// timeout. The dial keeps running in the background after a timeout.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	msg, err := render(c.cfg.From, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SMTPTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: smtp %s: %w", c.cfg.SMTP.Host, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: smtp %s: %w", c.cfg.SMTP.Host, ctx.Err())
	}
}

func render(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	to := nonBlank(m.To)
	subject := strings.TrimSpace(m.Subject)
	text, html := strings.TrimSpace(m.TextBody) != "", strings.TrimSpace(m.HTMLBody) != ""

	switch {
	case from == "":
		return nil, &InvalidMessageError{Reason: "from is required"}
	case len(to) == 0:
		return nil, &InvalidMessageError{Reason: "at least one recipient is required"}
	case subject == "":
		return nil, &InvalidMessageError{Reason: "subject is required"}
	case !text && !html:
		return nil, &InvalidMessageError{Reason: "a text or html body is required"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetDateHeader("Date", time.Now())

	switch {
	case text && html:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case html:
		msg.SetBody("text/html", m.HTMLBody)
	default:
		msg.SetBody("text/plain", m.TextBody)
	}
	return msg, nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
