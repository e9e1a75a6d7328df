package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"outreach/internal/config"
)

// IMAPReceiver is an authenticated IMAP session with the configured folder
// selected. It implements Receiver.
type IMAPReceiver struct {
	client *imapclient.Client
	logger *slog.Logger
}

// DialIMAP connects to the IMAP server, authenticates, and selects the
// configured folder. Connection failures are returned as-is; a login
// rejection is returned as an AuthError. The caller owns the session and
// must Close it.
func DialIMAP(cfg *config.MailboxConfig, logger *slog.Logger) (*IMAPReceiver, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var client *imapclient.Client
	var err error

	if cfg.UseTLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{Account: cfg.Username, Message: err.Error()}
	}

	if _, err := client.Select(cfg.Folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", cfg.Folder, err)
	}

	logger.Debug("mailbox session opened", "host", cfg.Host, "folder", cfg.Folder)

	return &IMAPReceiver{client: client, logger: logger}, nil
}

// ListSince searches the selected folder for messages received on or after
// since and returns their envelope data.
func (r *IMAPReceiver) ListSince(_ context.Context, since time.Time) ([]Envelope, error) {
	criteria := &imap.SearchCriteria{
		Since: truncateToDay(since),
	}

	searchData, err := r.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		UID:      true,
	}

	fetchCmd := r.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			r.logger.Warn("collecting envelope failed", "error", err)
			continue
		}

		envelopes = append(envelopes, envelopeFromBuffer(buf))
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("fetching envelopes: %w", err)
	}

	return envelopes, nil
}

// FetchBody fetches the full message for the given UID and decodes it into
// a normalized plain-text body.
func (r *IMAPReceiver) FetchBody(_ context.Context, id string) (*Message, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message UID %q: %w", id, err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := r.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	decoded := &Message{
		Envelope: envelopeFromBuffer(buf),
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		textBody, htmlBody := parseMIMEBody(raw)
		decoded.Body = normalizeBody(textBody, htmlBody)
	}

	if err := fetchCmd.Close(); err != nil {
		return decoded, fmt.Errorf("closing fetch: %w", err)
	}

	return decoded, nil
}

// Close logs out the IMAP session.
func (r *IMAPReceiver) Close() error {
	return r.client.Logout().Wait()
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		ID: strconv.FormatUint(uint64(buf.UID), 10),
	}

	if buf.Envelope != nil {
		env.Subject = buf.Envelope.Subject

		if !buf.Envelope.Date.IsZero() {
			date := buf.Envelope.Date
			env.SentAt = &date
		}

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.Sender = formatAddress(from.Name, from.Addr())
		}
	}

	return env
}
