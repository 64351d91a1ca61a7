// Package email delivers templated messages over SMTP. The auth flow never
// blocks on delivery: the queue dispatcher calls Send from worker goroutines
// and logs failures.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/userhub/user-management/internal/core/ports"
)

// Config captures the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends rendered templates through a single SMTP endpoint using
// STARTTLS when the server offers it.
type SMTPSender struct {
	cfg Config
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// Send renders the job's template and delivers it to the recipient.
func (s *SMTPSender) Send(ctx context.Context, job ports.EmailJob) error {
	subject, body, err := render(job.Template, templateInput{Name: job.Name, Data: job.Data})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.cfg.From, job.Recipient, subject, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{job.Recipient}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", job.Recipient, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
