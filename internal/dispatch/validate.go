package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// dnsTimeout bounds each individual DNS lookup so one hung resolution
// cannot stall the whole batch.
const dnsTimeout = 5 * time.Second

// Resolver abstracts DNS lookups so they can be replaced in tests.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Validator checks recipient domains before the relay is ever contacted:
// syntactic label rules, then DNS resolution, then an advisory MX lookup.
type Validator struct {
	resolver Resolver
	timeout  time.Duration
	logger   *slog.Logger
}

// NewValidator creates a Validator backed by the given resolver.
func NewValidator(resolver Resolver, logger *slog.Logger) *Validator {
	return &Validator{
		resolver: resolver,
		timeout:  dnsTimeout,
		logger:   logger,
	}
}

// ValidateDomain returns nil when the domain is syntactically valid and
// resolves. An absent or failing MX lookup is advisory only: a domain that
// resolves without MX records still validates.
func (v *Validator) ValidateDomain(ctx context.Context, domain string) error {
	if domain == "" {
		return errors.New("no domain provided")
	}

	if err := checkDomainSyntax(domain); err != nil {
		return fmt.Errorf("invalid domain format %q: %w", domain, err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if _, err := v.resolver.LookupHost(lookupCtx, domain); err != nil {
		return fmt.Errorf("domain %s not found (DNS resolution failed): %w", domain, err)
	}

	mxCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if records, err := v.resolver.LookupMX(mxCtx, domain); err != nil || len(records) == 0 {
		v.logger.Debug("no MX records", "domain", domain, "error", err)
	}

	return nil
}

// checkDomainSyntax enforces the per-label rules: 1-63 characters,
// alphanumeric plus hyphen, no leading or trailing hyphen.
func checkDomainSyntax(domain string) error {
	if len(domain) > 253 {
		return errors.New("domain exceeds 253 characters")
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 {
			return errors.New("empty label")
		}
		if len(label) > 63 {
			return fmt.Errorf("label %q exceeds 63 characters", label)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return fmt.Errorf("label %q starts or ends with a hyphen", label)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-':
			default:
				return fmt.Errorf("label %q contains invalid character %q", label, c)
			}
		}
	}

	return nil
}

// emailDomain extracts and normalizes the domain part of an email address.
func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}
