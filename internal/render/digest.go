// Package render produces the human-readable markdown digest of ingested
// messages. The digest is a derived view: it is regenerated in full from the
// machine-readable store on every run, never spliced into a previous
// rendering, so a render failure can never corrupt ingested data.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"outreach/internal/model"
)

// maxBodyLen caps the body excerpt shown per message in the digest.
const maxBodyLen = 1000

// Digest writes the markdown view of the ingest store to a fixed path.
type Digest struct {
	path string
}

// NewDigest creates a Digest that renders to the given file path.
func NewDigest(path string) *Digest {
	return &Digest{path: path}
}

// Render writes the digest for the full message set. The file is written to
// a temporary sibling and renamed into place, so readers never observe a
// partial digest.
func (d *Digest) Render(ctx context.Context, msgs []model.IngestedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := Markdown(msgs, time.Now())

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating digest directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".digest-*")
	if err != nil {
		return fmt.Errorf("creating digest temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing digest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing digest temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("replacing digest %s: %w", d.path, err)
	}

	return nil
}

// Markdown renders the digest body for the given messages. Rendering the
// same message set always yields the same output apart from the generation
// timestamp line.
func Markdown(msgs []model.IngestedMessage, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# HARO Queries\n\n")

	if len(msgs) == 0 {
		b.WriteString("No HARO emails found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**Total Messages:** %d\n", len(msgs))
	fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	for i, m := range msgs {
		fmt.Fprintf(&b, "## Message %d of %d\n\n", i+1, len(msgs))
		fmt.Fprintf(&b, "**Subject:** %s\n", orNA(m.Subject))
		fmt.Fprintf(&b, "**From:** %s\n", orNA(m.Sender))
		fmt.Fprintf(&b, "**Date:** %s\n\n", formatSentAt(m.SentAt))

		body := m.Body
		if len(body) > maxBodyLen {
			body = truncateOnRune(body, maxBodyLen) + "\n\n... (truncated)"
		}

		b.WriteString("**Body:**\n\n```\n")
		b.WriteString(body)
		b.WriteString("\n```\n\n---\n\n")
	}

	return b.String()
}

// truncateOnRune cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func formatSentAt(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(time.RFC1123Z)
}
