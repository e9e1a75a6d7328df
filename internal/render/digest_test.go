package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"outreach/internal/model"
)

func TestMarkdownEmpty(t *testing.T) {
	out := Markdown(nil, time.Now())
	if !strings.Contains(out, "No HARO emails found.") {
		t.Fatalf("empty digest missing placeholder: %q", out)
	}
}

func TestMarkdownContents(t *testing.T) {
	sent := time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)
	msgs := []model.IngestedMessage{
		{
			EmailID: "1",
			SentAt:  &sent,
			Sender:  "HARO <haro@helpareporter.com>",
			Subject: "Morning Edition",
			Body:    "Query #1: dress experts wanted",
		},
		{
			EmailID: "2",
			Subject: "",
			Body:    "second",
		},
	}

	out := Markdown(msgs, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	if !strings.Contains(out, "**Total Messages:** 2") {
		t.Error("missing total count")
	}
	if !strings.Contains(out, "## Message 1 of 2") || !strings.Contains(out, "## Message 2 of 2") {
		t.Error("missing per-message headers")
	}
	if !strings.Contains(out, "**Subject:** Morning Edition") {
		t.Error("missing subject")
	}
	// Blank fields and missing dates render as N/A.
	if !strings.Contains(out, "**Subject:** N/A") {
		t.Error("blank subject should render as N/A")
	}
	if !strings.Contains(out, "**Date:** N/A") {
		t.Error("nil sent date should render as N/A")
	}
}

func TestMarkdownTruncatesLongBodies(t *testing.T) {
	msgs := []model.IngestedMessage{
		{EmailID: "1", Subject: "s", Body: strings.Repeat("x", 2000)},
	}

	out := Markdown(msgs, time.Now())
	if !strings.Contains(out, "... (truncated)") {
		t.Error("expected truncation marker")
	}
	if strings.Contains(out, strings.Repeat("x", 1001)) {
		t.Error("body not truncated")
	}
}

func TestMarkdownTruncationKeepsValidUTF8(t *testing.T) {
	// Fill up to just below the limit so the multi-byte runes straddle it.
	body := strings.Repeat("x", maxBodyLen-1) + strings.Repeat("é", 10)
	msgs := []model.IngestedMessage{
		{EmailID: "1", Subject: "s", Body: body},
	}

	out := Markdown(msgs, time.Now())
	if !utf8.ValidString(out) {
		t.Fatal("truncation produced invalid UTF-8")
	}
}

func TestMarkdownIsDeterministic(t *testing.T) {
	msgs := []model.IngestedMessage{
		{EmailID: "1", Subject: "a", Body: "one"},
		{EmailID: "2", Subject: "b", Body: "two"},
	}
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	if Markdown(msgs, at) != Markdown(msgs, at) {
		t.Fatal("same input must render identically")
	}
}

func TestRenderReplacesFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.md")
	d := NewDigest(path)
	ctx := context.Background()

	if err := d.Render(ctx, []model.IngestedMessage{{EmailID: "1", Subject: "first", Body: "b"}}); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if err := d.Render(ctx, nil); err != nil {
		t.Fatalf("second render: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading digest: %v", err)
	}
	if strings.Contains(string(data), "first") {
		t.Error("digest must be fully regenerated, not appended")
	}
	if !strings.Contains(string(data), "No HARO emails found.") {
		t.Error("second render content missing")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".digest-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
