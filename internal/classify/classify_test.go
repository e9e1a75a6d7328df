package classify

import "testing"

func TestMatchDefaultPatterns(t *testing.T) {
	c := New(nil)

	cases := []struct {
		name    string
		sender  string
		subject string
		want    bool
	}{
		{"haro sender", "HARO <haro@helpareporter.com>", "Morning Edition", true},
		{"subject only", "noreply@example.com", "[HARO] Afternoon Edition", true},
		{"case insensitive", "QWOTED <requests@QWOTED.com>", "New requests", true},
		{"sourcebottle", "alerts@sourcebottle.com", "Call-outs for you", true},
		{"plain newsletter", "news@shop.example", "Weekend sale", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Match(tc.sender, tc.subject); got != tc.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tc.sender, tc.subject, got, tc.want)
			}
		})
	}
}

func TestMatchExtraKeywords(t *testing.T) {
	c := New([]string{"Dress Weekly", "  ", ""})

	if !c.Match("editor@example.com", "Dress Weekly digest") {
		t.Error("expected configured keyword to match case-insensitively")
	}
	if c.Match("editor@example.com", "Unrelated digest") {
		t.Error("unrelated subject must not match")
	}
}
