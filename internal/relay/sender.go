// Package relay is the outbound mail boundary. Providers share a minimal
// Sender interface; the dispatcher does not care how delivery happens.
package relay

import "context"

// Sender delivers a single plain-text outreach email. The from address and
// display name are fixed per provider at construction time.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
