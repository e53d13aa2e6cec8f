// Package delivery sends assembled digests to readers, by email and by
// email-to-SMS carrier gateways.
package delivery

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends messages through an SMTP relay with STARTTLS.
type Mailer struct {
	host     string
	port     int
	sender   string
	password string

	// sendFunc is swappable for tests.
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer for the given relay.
func NewMailer(host string, port int, sender, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		sender:   sender,
		password: password,
		sendFunc: smtp.SendMail,
	}
}

// Send delivers one message. Headers must not contain bare newlines.
func (m *Mailer) Send(to []string, subject, contentType, body string) error {
	if m.sender == "" || m.password == "" {
		return fmt.Errorf("mailer credentials not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	if subject != "" {
		fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	}
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.sender, m.password, m.host)
	return m.sendFunc(addr, auth, m.sender, to, []byte(msg.String()))
}
