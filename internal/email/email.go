// Package email sends transactional mail. With no SMTP host configured the
// file sender takes over, which is what development and tests use.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: smtp.PlainAuth("", username, password, host),
	}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, to, subject, body)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// FileSender appends outgoing mail to a log file instead of delivering it.
type FileSender struct {
	path string
}

func NewFileSender(path string) (*FileSender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("email log dir: %w", err)
	}
	return &FileSender{path: path}, nil
}

func (s *FileSender) Send(_ context.Context, to, subject, body string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("email log open: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "--- %s To: %s Subject: %s ---\n%s\n\n",
		time.Now().UTC().Format(time.RFC3339), to, subject, body)
	return err
}
