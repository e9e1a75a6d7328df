package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"outreach/internal/model"
	"outreach/internal/relay"
)

// Ledger is the persistence surface the dispatch engine needs: the set of
// already-contacted sites plus append-only outcome recording.
type Ledger interface {
	Contacted(ctx context.Context) (map[model.ContactKey]string, error)
	AppendLedger(ctx context.Context, entry model.LedgerEntry) error
}

// Engine walks a batch of outreach items through validation and send,
// recording exactly one ledger entry per terminal outcome. Items whose
// (site, contact) pair already appears in the ledger are skipped without
// any write.
type Engine struct {
	ledger    Ledger
	sender    relay.Sender
	validator *Validator
	logger    *slog.Logger
}

func New(ledger Ledger, sender relay.Sender, validator *Validator, logger *slog.Logger) *Engine {
	return &Engine{
		ledger:    ledger,
		sender:    sender,
		validator: validator,
		logger:    logger,
	}
}

// Dispatch processes every item in order. Individual item failures are
// recorded and counted, not fatal; only ledger errors abort the run. The
// returned summary reflects everything processed up to that point.
func (e *Engine) Dispatch(ctx context.Context, items []model.OutreachItem) (*model.DispatchSummary, error) {
	summary := &model.DispatchSummary{}

	contacted, err := e.ledger.Contacted(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading contacted set: %w", err)
	}

	for _, item := range items {
		contact, hasContact := item.Contact()
		key := model.NewContactKey(item.Site, contact)

		if hasContact {
			if status, seen := contacted[key]; seen {
				e.logger.Info("already contacted, skipping",
					"site", item.Site,
					"contact", contact,
					"status", status)
				summary.AlreadyContacted++
				continue
			}
		}

		if item.ToEmail == nil || strings.TrimSpace(*item.ToEmail) == "" {
			if err := e.recordSkip(ctx, item); err != nil {
				return summary, err
			}
			summary.Skipped++
			continue
		}

		to := strings.TrimSpace(*item.ToEmail)
		domain := emailDomain(to)

		if err := e.validator.ValidateDomain(ctx, domain); err != nil {
			e.logger.Warn("domain validation failed",
				"site", item.Site,
				"to", to,
				"error", err)
			reason := fmt.Sprintf("Domain validation failed: %v", err)
			if err := e.recordFailure(ctx, item, to, reason, true); err != nil {
				return summary, err
			}
			summary.Failed++
			continue
		}

		if err := e.sender.Send(ctx, to, item.Subject, item.Body); err != nil {
			reason, domainRelated := classifySendError(err, domain)
			e.logger.Warn("send failed",
				"site", item.Site,
				"to", to,
				"error", err)
			if err := e.recordFailure(ctx, item, to, reason, domainRelated); err != nil {
				return summary, err
			}
			summary.Failed++
			continue
		}

		e.logger.Info("email sent", "site", item.Site, "to", to)
		entry := model.LedgerEntry{
			Site:    item.Site,
			Contact: to,
			Status:  model.StatusSent,
			Notes:   "Email sent successfully via relay",
		}
		if err := e.ledger.AppendLedger(ctx, entry); err != nil {
			return summary, fmt.Errorf("recording sent outcome for %s: %w", item.Site, err)
		}
		// Guard against duplicate items within the same batch.
		contacted[key] = model.StatusSent
		summary.Sent++
	}

	return summary, nil
}

// recordSkip writes the skipped outcome for an item with no usable email
// address. A contact form URL, if present, is noted but never automated.
func (e *Engine) recordSkip(ctx context.Context, item model.OutreachItem) error {
	entry := model.LedgerEntry{
		Site:    item.Site,
		Contact: "N/A",
		Status:  model.StatusSkipped,
		Notes:   "No email address or contact form URL available",
	}
	if item.ContactFormURL != nil && *item.ContactFormURL != "" {
		entry.Contact = *item.ContactFormURL
		entry.Notes = "No email address; contact form URL available for manual outreach"
		e.logger.Info("no email address, contact form only",
			"site", item.Site,
			"contact_form_url", *item.ContactFormURL)
	} else {
		e.logger.Info("no contact information", "site", item.Site)
	}

	if err := e.ledger.AppendLedger(ctx, entry); err != nil {
		return fmt.Errorf("recording skipped outcome for %s: %w", item.Site, err)
	}
	return nil
}

func (e *Engine) recordFailure(ctx context.Context, item model.OutreachItem, to, reason string, domainRelated bool) error {
	if domainRelated && item.ContactFormURL != nil && *item.ContactFormURL != "" {
		e.logger.Info("contact form available as fallback",
			"site", item.Site,
			"contact_form_url", *item.ContactFormURL)
	}

	entry := model.LedgerEntry{
		Site:    item.Site,
		Contact: to,
		Status:  model.StatusFailed,
		Notes:   reason,
	}
	if err := e.ledger.AppendLedger(ctx, entry); err != nil {
		return fmt.Errorf("recording failed outcome for %s: %w", item.Site, err)
	}
	return nil
}

// classifySendError turns a relay error into a ledger note. domainRelated
// reports whether the failure points at the recipient domain itself, which
// makes a contact form a plausible fallback.
func classifySendError(err error, domain string) (reason string, domainRelated bool) {
	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "couldn't be found"),
		strings.Contains(text, "domain") && strings.Contains(text, "not found"):
		return fmt.Sprintf("Domain not found: the address %s couldn't be found", domain), true
	case strings.Contains(text, "auth"):
		return fmt.Sprintf("Relay authentication failed: %v", err), false
	case strings.Contains(text, "recipient"),
		strings.Contains(text, "refused"),
		strings.Contains(text, "rcpt"):
		return fmt.Sprintf("Recipient refused: %v", err), true
	default:
		return fmt.Sprintf("Send failed: %v", err), false
	}
}
