package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach/internal/model"
)

// MergeProspects inserts the prospects that are not already known and
// returns how many were added. A prospect is a duplicate when its contact
// email or homepage URL (case-insensitively) matches an existing record.
func (s *Store) MergeProspects(ctx context.Context, prospects []model.Prospect) (int, error) {
	if len(prospects) == 0 {
		return 0, nil
	}

	seenEmails, seenURLs, err := s.prospectIdentities(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO prospects (id, site_name, homepage_url, contact_email, contact_form_url, relevance, found_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, p := range prospects {
		email := lowered(p.ContactEmail)
		url := lowered(p.HomepageURL)

		if email != "" {
			if _, dup := seenEmails[email]; dup {
				continue
			}
		}
		if url != "" {
			if _, dup := seenURLs[url]; dup {
				continue
			}
		}

		foundAt := p.FoundAt
		if foundAt.IsZero() {
			foundAt = time.Now()
		}

		_, err = stmt.ExecContext(ctx,
			uuid.New().String(), p.SiteName,
			p.HomepageURL, p.ContactEmail, p.ContactFormURL,
			p.Relevance, foundAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting prospect %s: %w", p.SiteName, err)
		}

		if email != "" {
			seenEmails[email] = struct{}{}
		}
		if url != "" {
			seenURLs[url] = struct{}{}
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prospects: %w", err)
	}

	return added, nil
}

// ListProspects returns every stored prospect, oldest first.
func (s *Store) ListProspects(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT site_name, homepage_url, contact_email, contact_form_url, relevance, found_at FROM prospects ORDER BY found_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying prospects: %w", err)
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		var (
			p              model.Prospect
			homepageURL    sql.NullString
			contactEmail   sql.NullString
			contactFormURL sql.NullString
		)

		err := rows.Scan(&p.SiteName, &homepageURL, &contactEmail, &contactFormURL, &p.Relevance, &p.FoundAt)
		if err != nil {
			return nil, fmt.Errorf("scanning prospect row: %w", err)
		}

		p.HomepageURL = nullableString(homepageURL)
		p.ContactEmail = nullableString(contactEmail)
		p.ContactFormURL = nullableString(contactFormURL)
		prospects = append(prospects, p)
	}

	return prospects, rows.Err()
}

// prospectIdentities loads the lowered contact emails and homepage URLs of
// all stored prospects.
func (s *Store) prospectIdentities(ctx context.Context) (emails, urls map[string]struct{}, err error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT contact_email, homepage_url FROM prospects")
	if err != nil {
		return nil, nil, fmt.Errorf("querying prospect identities: %w", err)
	}
	defer rows.Close()

	emails = make(map[string]struct{})
	urls = make(map[string]struct{})

	for rows.Next() {
		var email, url sql.NullString
		if err := rows.Scan(&email, &url); err != nil {
			return nil, nil, fmt.Errorf("scanning prospect identity: %w", err)
		}
		if email.Valid && email.String != "" {
			emails[strings.ToLower(email.String)] = struct{}{}
		}
		if url.Valid && url.String != "" {
			urls[strings.ToLower(url.String)] = struct{}{}
		}
	}

	return emails, urls, rows.Err()
}

func lowered(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
