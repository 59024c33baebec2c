// Package mailer delivers verification emails. An SMTP implementation is
// used when SMTP_HOST is configured; otherwise LogMailer writes the
// verification link to the log, which keeps local development working
// without a mail server.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/mrlokans/authkit/internal/config"
)

// Mailer sends a single email.
type Mailer interface {
	Send(to, subject, body string) error
}

// NewFromConfig picks the SMTP mailer when configured, the log mailer otherwise.
func NewFromConfig(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		log.Printf("SMTP is not configured; verification emails will be logged")
		return &LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates an SMTP mailer from configuration.
func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the message to the process log instead of sending it.
type LogMailer struct{}

func (m *LogMailer) Send(to, subject, body string) error {
	log.Printf("[MAIL] to=%s subject=%q\n%s", to, subject, body)
	return nil
}
