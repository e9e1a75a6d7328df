package dispatch

import (
	"os"
	"path/filepath"
	"testing"
)

func writeItems(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outreach_emails.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing items file: %v", err)
	}
	return path
}

func TestLoadItems(t *testing.T) {
	path := writeItems(t, `[
		{"site": "Fashion Weekly", "to": "editor@fashionweekly.com", "subject": "Hi", "message": "Body"},
		{"site": "Style Blog", "to": null, "contact_form_url": "https://styleblog.com/contact", "subject": "Hi", "message": "Body"}
	]`)

	items, err := LoadItems(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ToEmail == nil || *items[0].ToEmail != "editor@fashionweekly.com" {
		t.Errorf("unexpected first item email: %v", items[0].ToEmail)
	}
	if items[1].ToEmail != nil {
		t.Errorf("expected nil email for second item, got %v", *items[1].ToEmail)
	}
	if items[1].ContactFormURL == nil {
		t.Error("expected contact form URL for second item")
	}
}

func TestLoadItemsRejectsMissingSite(t *testing.T) {
	path := writeItems(t, `[{"to": "x@y.com", "subject": "s", "message": "m"}]`)

	if _, err := LoadItems(path); err == nil {
		t.Fatal("expected error for item without a site")
	}
}

func TestLoadItemsRejectsMalformedJSON(t *testing.T) {
	path := writeItems(t, `{"site": "not an array"}`)

	if _, err := LoadItems(path); err == nil {
		t.Fatal("expected error for non-array JSON")
	}
}
