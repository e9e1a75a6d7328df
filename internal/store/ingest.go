package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"outreach/internal/model"
)

// AppendMessages appends a batch of ingested messages inside one
// transaction. A record whose email_id already exists is left untouched —
// existing rows are never updated, reordered, or deleted.
func (s *Store) AppendMessages(ctx context.Context, msgs []model.IngestedMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO messages (email_id, sent_at, sender, subject, body, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_id) DO NOTHING`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		var sentAt interface{}
		if m.SentAt != nil {
			sentAt = m.SentAt.UTC()
		}

		ingestedAt := m.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = time.Now()
		}

		_, err = stmt.ExecContext(ctx,
			m.EmailID, sentAt, m.Sender, m.Subject, m.Body, ingestedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("appending message %s: %w", m.EmailID, err)
		}
	}

	return tx.Commit()
}

// KnownIDs returns the set of email IDs already present in the ingest store.
func (s *Store) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT email_id FROM messages")
	if err != nil {
		return nil, fmt.Errorf("querying known ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning email id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

// ListMessages returns every ingested message in stable ingestion order.
func (s *Store) ListMessages(ctx context.Context) ([]model.IngestedMessage, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT email_id, sent_at, sender, subject, body, ingested_at FROM messages ORDER BY ingested_at, email_id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.IngestedMessage
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// Watermark returns the latest sent_at among ingested messages whose date
// parsed, or nil when the store is empty or no stored date parsed.
// Selecting the column directly (rather than MAX) keeps the DATETIME
// decltype, so the driver converts the value to time.Time.
func (s *Store) Watermark(ctx context.Context) (*time.Time, error) {
	var mark time.Time
	err := s.db.GetContext(ctx, &mark,
		"SELECT sent_at FROM messages WHERE sent_at IS NOT NULL ORDER BY sent_at DESC LIMIT 1",
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("computing watermark: %w", err)
	}

	return &mark, nil
}

// scanMessage scans one message row.
func scanMessage(scan func(dest ...interface{}) error) (model.IngestedMessage, error) {
	var (
		m          model.IngestedMessage
		sentAt     sql.NullTime
		ingestedAt time.Time
	)

	err := scan(&m.EmailID, &sentAt, &m.Sender, &m.Subject, &m.Body, &ingestedAt)
	if err != nil {
		return model.IngestedMessage{}, fmt.Errorf("scanning message row: %w", err)
	}

	if sentAt.Valid {
		t := sentAt.Time
		m.SentAt = &t
	}
	m.IngestedAt = ingestedAt

	return m, nil
}
