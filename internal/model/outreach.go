package model

import (
	"strings"
	"time"
)

// Ledger entry statuses. A (site, contact) pair with status sent or opened
// is considered satisfied and must never be contacted again.
const (
	StatusSent    = "sent"
	StatusOpened  = "opened"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// OutreachItem is one pending outreach message, produced by an external
// prospecting step. At least one of ToEmail and ContactFormURL must be set
// for the item to be actionable.
type OutreachItem struct {
	Site           string  `json:"site"`
	ToEmail        *string `json:"to"`
	ContactFormURL *string `json:"contact_form_url"`
	Subject        string  `json:"subject"`
	Body           string  `json:"message"`
}

// Contact returns the contact identity for ledger deduplication: the email
// address when present, otherwise the contact form URL. ok is false when the
// item has neither.
func (i OutreachItem) Contact() (contact string, ok bool) {
	if i.ToEmail != nil && *i.ToEmail != "" {
		return *i.ToEmail, true
	}
	if i.ContactFormURL != nil && *i.ContactFormURL != "" {
		return *i.ContactFormURL, true
	}
	return "", false
}

// LedgerEntry is one outreach attempt record. The ledger is append-only;
// corrections happen out of band.
type LedgerEntry struct {
	ID        string
	Site      string
	Contact   string
	Status    string
	Notes     string
	CreatedAt time.Time
}

// ContactKey is the case-insensitive (site, contact) identity used for
// already-contacted checks.
type ContactKey struct {
	Site    string
	Contact string
}

// NewContactKey normalizes a site/contact pair into a ContactKey.
func NewContactKey(site, contact string) ContactKey {
	return ContactKey{
		Site:    strings.ToLower(strings.TrimSpace(site)),
		Contact: strings.ToLower(strings.TrimSpace(contact)),
	}
}

// DispatchSummary is the run-level outcome count reported after every
// dispatch run, including partial ones.
type DispatchSummary struct {
	Sent             int
	Failed           int
	Skipped          int
	AlreadyContacted int
}

// Total returns the number of items that reached a terminal state.
func (s DispatchSummary) Total() int {
	return s.Sent + s.Failed + s.Skipped + s.AlreadyContacted
}
