package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	pop3client "github.com/knadh/go-pop3"

	"outreach/internal/config"
)

// POP3Receiver is an authenticated POP3 session. POP3 has no server-side
// date search, so ListSince lists every message and filters by the Date
// header client-side.
type POP3Receiver struct {
	conn   *pop3client.Conn
	logger *slog.Logger

	// seq maps session IDs back to POP3 sequence numbers for body
	// retrieval; envs caches the envelopes seen by ListSince.
	seq  map[string]int
	envs map[string]Envelope
}

// DialPOP3 connects to the POP3 server and authenticates. A credential
// rejection is returned as an AuthError. The caller owns the session and
// must Close it.
func DialPOP3(cfg *config.MailboxConfig, logger *slog.Logger) (*POP3Receiver, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	client := pop3client.New(pop3client.Opt{
		Host:       cfg.Host,
		Port:       cfg.Port,
		TLSEnabled: cfg.UseTLS,
	})

	conn, err := client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connecting to POP3 %s: %w", addr, err)
	}

	if err := conn.Auth(cfg.Username, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, &AuthError{Account: cfg.Username, Message: err.Error()}
	}

	logger.Debug("mailbox session opened", "host", cfg.Host, "protocol", "pop3")

	return &POP3Receiver{
		conn:   conn,
		logger: logger,
		seq:    make(map[string]int),
		envs:   make(map[string]Envelope),
	}, nil
}

// ListSince lists the mailbox and returns envelopes for messages dated on or
// after since. Messages without a parseable date are included, since they
// cannot be excluded safely.
func (r *POP3Receiver) ListSince(_ context.Context, since time.Time) ([]Envelope, error) {
	msgs, err := r.conn.List(0)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	cutoff := truncateToDay(since)

	var envelopes []Envelope
	for _, msg := range msgs {
		entity, err := r.conn.Top(msg.ID, 0)
		if err != nil {
			r.logger.Warn("fetching headers failed", "seq", msg.ID, "error", err)
			continue
		}

		header := mail.Header{Header: entity.Header}
		env := envelopeFromHeader(header)

		if env.ID == "" {
			if msg.UID != "" {
				env.ID = "pop3-uid-" + msg.UID
			} else {
				env.ID = "pop3-" + strconv.Itoa(msg.ID)
			}
		}

		if env.SentAt != nil && env.SentAt.Before(cutoff) {
			continue
		}

		r.seq[env.ID] = msg.ID
		r.envs[env.ID] = env
		envelopes = append(envelopes, env)
	}

	return envelopes, nil
}

// FetchBody retrieves the raw message for a session ID returned by
// ListSince and decodes its body.
func (r *POP3Receiver) FetchBody(_ context.Context, id string) (*Message, error) {
	seq, ok := r.seq[id]
	if !ok {
		return nil, fmt.Errorf("message %q not listed in this session", id)
	}

	rawBuf, err := r.conn.RetrRaw(seq)
	if err != nil {
		return nil, fmt.Errorf("retrieving message %q: %w", id, err)
	}

	textBody, htmlBody := parseMIMEBody(rawBuf.Bytes())

	return &Message{
		Envelope: r.envs[id],
		Body:     normalizeBody(textBody, htmlBody),
	}, nil
}

// Close quits the POP3 session.
func (r *POP3Receiver) Close() error {
	return r.conn.Quit()
}

// envelopeFromHeader builds an Envelope from parsed message headers. The ID
// is the Message-ID when present; the caller supplies a fallback otherwise.
func envelopeFromHeader(header mail.Header) Envelope {
	var env Envelope

	if msgID, err := header.MessageID(); err == nil {
		env.ID = msgID
	}

	if subject, err := header.Subject(); err == nil {
		env.Subject = subject
	}

	if date, err := header.Date(); err == nil && !date.IsZero() {
		env.SentAt = &date
	}

	if addrs, err := header.AddressList("From"); err == nil && len(addrs) > 0 {
		env.Sender = formatAddress(addrs[0].Name, addrs[0].Address)
	}

	return env
}
