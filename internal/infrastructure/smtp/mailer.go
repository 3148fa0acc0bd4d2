package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/flightdesk-api/internal/config"
	"github.com/flightdesk-api/internal/domain"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("header injection in recipient or subject: %w", domain.ErrBadRequest)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

const linkSubject = "Your sign-in link"

// LinkSender delivers magic links by email.
type LinkSender struct {
	mailer Mailer
}

func NewLinkSender(m Mailer) *LinkSender {
	return &LinkSender{mailer: m}
}

func (s *LinkSender) SendLink(_ context.Context, d domain.LinkDelivery) error {
	body := fmt.Sprintf("Use the link below to sign in. It works once and expires at %s UTC.\r\n\r\n%s\r\n\r\n"+
		"If you did not ask for this email you can ignore it.\r\n",
		d.ExpiresAt.UTC().Format("2006-01-02 15:04"), d.URL)
	if err := s.mailer.SendEmail(d.Email, linkSubject, body); err != nil {
		return fmt.Errorf("send magic link email: %w", err)
	}
	return nil
}
