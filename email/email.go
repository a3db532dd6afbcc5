package email

import (
	"fmt"
	"net/smtp"
)

// Mailer sends plain-text email over SMTP.
type Mailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Configured reports whether SMTP settings are present.
func (m *Mailer) Configured() bool {
	return m.Host != "" && m.User != "" && m.Pass != ""
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	addr := m.Host + ":" + m.Port
	from := m.From
	if from == "" {
		from = m.User
	}

	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}
