package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text message. Callers in this codebase always
// invoke it fire-and-forget: delivery failures are logged, never propagated
// to the user who triggered the send.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers through a plain SMTP endpoint.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	host := addr
	if i := strings.Index(addr, ":"); i >= 0 {
		host = addr[:i]
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPMailer{Addr: addr, From: from, Auth: auth}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body)

	err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg))
	if err != nil {
		return fmt.Errorf("could not send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development when no SMTP endpoint is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail to %s: %s", to, subject)
	return nil
}
