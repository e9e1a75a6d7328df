package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"outreach/internal/config"
)

// smtpSendMail is swapped out in tests. net/smtp.SendMail negotiates
// STARTTLS on its own when the server advertises it.
var smtpSendMail = smtp.SendMail

// SMTPSender delivers mail through a classic SMTP relay. One sender is
// scoped to one run; each Send opens and closes its own relay conversation,
// which keeps sequential dispatch friendly to rate-limiting relays.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	useTLS    bool
	logger    *slog.Logger
}

// NewSMTPSender creates an SMTP sender from the relay configuration.
// UseTLS selects an implicit-TLS connection (port 465 style); otherwise the
// connection is plain with opportunistic STARTTLS.
func NewSMTPSender(cfg *config.RelayConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		useTLS:    cfg.UseTLS && cfg.Port == 465,
		logger:    logger,
	}
}

// Send delivers one plain-text message to a single recipient.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if (s.username == "") != (s.password == "") {
		return errors.New("incomplete SMTP credentials: username and password must both be set or both be blank")
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	msg := s.buildMessage(to, subject, body)

	var err error
	if s.useTLS {
		err = s.sendImplicitTLS(addr, to, msg)
	} else {
		var auth smtp.Auth
		if s.username != "" {
			auth = smtp.PlainAuth("", s.username, s.password, s.host)
		}
		err = smtpSendMail(addr, auth, s.fromEmail, []string{to}, msg)
	}
	if err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

// sendImplicitTLS delivers over an already-encrypted connection (SMTPS).
func (s *SMTPSender) sendImplicitTLS(addr, to string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: s.host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("tls dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message body: %w", err)
	}

	return client.Quit()
}

// buildMessage assembles the RFC 5322 message bytes.
func (s *SMTPSender) buildMessage(to, subject, body string) []byte {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	headers := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"UTF-8\"\r\n"+
			"\r\n",
		from, to, subject,
	)

	return []byte(headers + body)
}
