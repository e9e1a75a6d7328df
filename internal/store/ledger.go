package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"outreach/internal/model"
)

// AppendLedger appends a single outreach attempt record. Entries are never
// edited or removed by the engines; corrections happen out of band.
func (s *Store) AppendLedger(ctx context.Context, entry model.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger (id, site, contact, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Site, entry.Contact, entry.Status, entry.Notes,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending ledger entry for %s: %w", entry.Site, err)
	}

	return nil
}

// Contacted returns the satisfied (site, contact) pairs: those with a ledger
// entry of status sent or opened. Keys are case-insensitively normalized;
// values carry the satisfying status.
func (s *Store) Contacted(ctx context.Context) (map[model.ContactKey]string, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT site, contact, status FROM ledger WHERE status IN (?, ?)",
		model.StatusSent, model.StatusOpened,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacted pairs: %w", err)
	}
	defer rows.Close()

	contacted := make(map[model.ContactKey]string)
	for rows.Next() {
		var site, contact, status string
		if err := rows.Scan(&site, &contact, &status); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		contacted[model.NewContactKey(site, contact)] = status
	}

	return contacted, rows.Err()
}

// ListLedger returns every ledger entry in append order.
func (s *Store) ListLedger(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, site, contact, status, notes, created_at FROM ledger ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(&e.ID, &e.Site, &e.Contact, &e.Status, &e.Notes, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
