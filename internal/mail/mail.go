package mail

import (
	"fmt"
	"net/smtp"
)

// SMTPMailer sends HTML mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	from     string
	password string
}

func New(host, port, from, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, from: from, password: password}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.password == "" {
		return fmt.Errorf("mail: MAIL_PASSWORD not configured")
	}

	msg := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}
