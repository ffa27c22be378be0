// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/config"
)

// smtpSender delivers email through an SMTP relay
type smtpSender struct {
	cfg config.EmailConfig
}

func newSMTPSender(cfg config.EmailConfig) *smtpSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	msg := s.buildMessage(email)
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	if s.cfg.SMTPTLS {
		return s.sendWithTLS(serverAddr, auth, email.To, msg)
	}
	return smtp.SendMail(serverAddr, auth, s.cfg.FromEmail, email.To, msg)
}

func (s *smtpSender) buildMessage(email *Email) []byte {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(email.To, ", ")},
		{"Subject", email.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
	}
	if s.cfg.ReplyTo != "" {
		headers = append(headers, [2]string{"Reply-To", s.cfg.ReplyTo})
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)
	return msg.Bytes()
}

// sendWithTLS uses an implicit TLS connection, as port 465 relays expect
func (s *smtpSender) sendWithTLS(serverAddr string, auth smtp.Auth, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return errors.Wrap(err, "failed to create TLS connection")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "SMTP authentication failed")
		}
	}
	if err := client.Mail(s.cfg.FromEmail); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return errors.Wrapf(err, "failed to set recipient %s", addr)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to send DATA command")
	}
	if _, err := writer.Write(msg); err != nil {
		writer.Close()
		return errors.Wrap(err, "failed to write email content")
	}
	return writer.Close()
}
