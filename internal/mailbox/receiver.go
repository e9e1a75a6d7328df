package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Envelope holds the header-level fields of a mailbox message, enough to
// deduplicate and classify it without fetching the body.
type Envelope struct {
	// ID identifies the message within the current mailbox session
	// (IMAP UID, or Message-ID/UIDL over POP3). It is not guaranteed
	// stable across mailbox re-indexing.
	ID string

	Sender  string
	Subject string

	// SentAt is nil when the message carried no parseable date.
	SentAt *time.Time
}

// Message is a fully fetched and decoded mailbox message.
type Message struct {
	Envelope

	// Body is the normalized plain-text body: the text/plain part when
	// present, otherwise the text/html part with markup stripped.
	Body string
}

// Receiver is a session with a remote mailbox, scoped to a single run:
// dialed at start, closed at end regardless of outcome.
type Receiver interface {
	// ListSince returns envelope data for every message received on or
	// after since. Mailbox SINCE semantics are day-granular and
	// inclusive of the boundary day.
	ListSince(ctx context.Context, since time.Time) ([]Envelope, error)

	// FetchBody retrieves and decodes the full message for the given
	// session ID.
	FetchBody(ctx context.Context, id string) (*Message, error)

	// Close releases the mailbox session.
	Close() error
}

// AuthError indicates the mailbox rejected the configured credentials.
// It is fatal for the run: no state is written after it.
type AuthError struct {
	Account string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mailbox authentication failed for %s: %s", e.Account, e.Message)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// truncateToDay drops the time-of-day component, mirroring the day
// granularity of mailbox SINCE searches.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
