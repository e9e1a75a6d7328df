package store_test

import (
	"context"
	"testing"

	"outreach/internal/model"
	"outreach/tests/testutil"
)

func TestContactedIncludesOnlySentAndOpened(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	entries := []model.LedgerEntry{
		{Site: "Fashion Weekly", Contact: "editor@fashionweekly.com", Status: model.StatusSent},
		{Site: "Style Blog", Contact: "hi@styleblog.com", Status: model.StatusOpened},
		{Site: "Dead Site", Contact: "x@dead.com", Status: model.StatusFailed},
		{Site: "No Contact", Contact: "N/A", Status: model.StatusSkipped},
	}
	for _, e := range entries {
		if err := s.AppendLedger(ctx, e); err != nil {
			t.Fatalf("appending %s: %v", e.Site, err)
		}
	}

	contacted, err := s.Contacted(ctx)
	if err != nil {
		t.Fatalf("contacted: %v", err)
	}
	if len(contacted) != 2 {
		t.Fatalf("expected 2 contacted pairs, got %d", len(contacted))
	}
	if status := contacted[model.NewContactKey("Fashion Weekly", "editor@fashionweekly.com")]; status != model.StatusSent {
		t.Errorf("expected sent status, got %q", status)
	}
	if _, ok := contacted[model.NewContactKey("Dead Site", "x@dead.com")]; ok {
		t.Error("failed entries must not count as contacted")
	}
}

func TestContactedIsCaseInsensitive(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	entry := model.LedgerEntry{
		Site:    "Fashion Weekly",
		Contact: "Editor@FashionWeekly.com",
		Status:  model.StatusSent,
	}
	if err := s.AppendLedger(ctx, entry); err != nil {
		t.Fatalf("appending: %v", err)
	}

	contacted, err := s.Contacted(ctx)
	if err != nil {
		t.Fatalf("contacted: %v", err)
	}
	if _, ok := contacted[model.NewContactKey("fashion weekly", "editor@fashionweekly.com")]; !ok {
		t.Fatal("expected case-insensitive lookup to match")
	}
}

func TestAppendLedgerDefaultsIDAndTimestamp(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	entry := model.LedgerEntry{
		Site:    "Fashion Weekly",
		Contact: "editor@fashionweekly.com",
		Status:  model.StatusSent,
		Notes:   "Email sent successfully via relay",
	}
	if err := s.AppendLedger(ctx, entry); err != nil {
		t.Fatalf("appending: %v", err)
	}

	list, err := s.ListLedger(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
	if list[0].ID == "" {
		t.Error("expected a generated ID")
	}
	if list[0].CreatedAt.IsZero() {
		t.Error("expected a defaulted CreatedAt")
	}
	if list[0].Notes != entry.Notes {
		t.Errorf("notes = %q, want %q", list[0].Notes, entry.Notes)
	}
}

func TestAppendLedgerRejectsUnknownStatus(t *testing.T) {
	s := testutil.NewTestStore(t)

	entry := model.LedgerEntry{
		Site:    "Fashion Weekly",
		Contact: "editor@fashionweekly.com",
		Status:  "bounced",
	}
	if err := s.AppendLedger(context.Background(), entry); err == nil {
		t.Fatal("expected status CHECK constraint to reject unknown status")
	}
}
