package model

import "testing"

func TestOutreachItemContact(t *testing.T) {
	email := "editor@fashionweekly.com"
	form := "https://fashionweekly.com/contact"

	cases := []struct {
		name string
		item OutreachItem
		want string
		ok   bool
	}{
		{"email wins", OutreachItem{ToEmail: &email, ContactFormURL: &form}, email, true},
		{"form fallback", OutreachItem{ContactFormURL: &form}, form, true},
		{"neither", OutreachItem{}, "", false},
		{"empty email falls through", OutreachItem{ToEmail: new(string), ContactFormURL: &form}, form, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.item.Contact()
			if got != tc.want || ok != tc.ok {
				t.Errorf("Contact() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestNewContactKeyNormalizes(t *testing.T) {
	a := NewContactKey("Fashion Weekly", " Editor@FashionWeekly.com ")
	b := NewContactKey("fashion weekly", "editor@fashionweekly.com")
	if a != b {
		t.Fatalf("expected normalized keys to be equal: %+v vs %+v", a, b)
	}
}

func TestDispatchSummaryTotal(t *testing.T) {
	s := DispatchSummary{Sent: 2, Failed: 1, Skipped: 3, AlreadyContacted: 4}
	if s.Total() != 10 {
		t.Fatalf("Total() = %d, want 10", s.Total())
	}
}
