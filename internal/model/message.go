package model

import "time"

// IngestedMessage is one classified journalist-request email as persisted in
// the ingest store. Records are append-only: once stored they are never
// mutated or deleted.
type IngestedMessage struct {
	// EmailID identifies the message within one mailbox session. It is
	// unique per store but not guaranteed stable across mailbox
	// re-indexing (e.g. an IMAP UIDVALIDITY change).
	EmailID string

	// SentAt is the parsed Date header. Nil when the header was missing
	// or unparsable; such records are excluded from watermark
	// computation.
	SentAt *time.Time

	Sender  string
	Subject string

	// Body is the normalized plain-text body (markup stripped, transport
	// encodings decoded).
	Body string

	IngestedAt time.Time
}
