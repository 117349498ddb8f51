package queue

import (
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iliyamo/hris-auth/internal/config"
)

// Mailer sends password-reset codes to users.  The worker owns retries via
// the queue's ack policy; Send itself attempts delivery exactly once.
type Mailer interface {
	Send(ev OTPEmailEvent) error
}

// SMTPMailer delivers codes through a plain-auth SMTP server.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewMailer picks a delivery backend from the mail configuration.  Without
// an SMTP host the worker appends outgoing mail to logs/otp-email.log so
// codes remain retrievable in development environments.
func NewMailer(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		return &FileMailer{Path: filepath.Join("logs", "otp-email.log")}
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ev OTPEmailEvent) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", ev.Email)
	msg.WriteString("Subject: Your OTP Code\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "<h2>Your Verification Code</h2><p>Your OTP code is: <strong>%s</strong></p><p>This code will expire in 5 minutes.</p>\r\n", ev.Code)

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{ev.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// FileMailer appends one line per code to a local log file instead of
// sending mail.
type FileMailer struct {
	Path string
}

func (m *FileMailer) Send(ev OTPEmailEvent) error {
	if err := os.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(m.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] OTP e-mail | to=%s | code=%s\n",
		time.Now().UTC().Format(time.RFC3339), ev.Email, ev.Code)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
