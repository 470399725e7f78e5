package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

// SMTP mails codes as plain text.
type SMTP struct {
	Addr     string // host:port
	From     string
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(addr, from, username, password string) *SMTP {
	return &SMTP{Addr: addr, From: from, Username: username, Password: password, send: smtp.SendMail}
}

func (m *SMTP) SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := string(to)
	if strings.ContainsAny(addr, "\r\n") {
		return fmt.Errorf("smtp: invalid recipient")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.From, addr, subject, body(code))

	var auth smtp.Auth
	if m.Username != "" {
		host, _, err := net.SplitHostPort(m.Addr)
		if err != nil {
			return fmt.Errorf("smtp: address %q: %w", m.Addr, err)
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(m.Addr, auth, m.From, []string{addr}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}
