// Package ingest implements the incremental mailbox sync: it bounds the
// fetch window by the watermark of previously ingested mail, filters out
// already-seen messages before fetching bodies, classifies the remainder,
// and appends the matches to the ingest store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/classify"
	"outreach/internal/mailbox"
	"outreach/internal/model"
)

// defaultLookbackDays bounds the first fetch window when no watermark can
// be derived from the store.
const defaultLookbackDays = 30

// Store is the slice of the persistence layer the sync engine needs. The
// engine is the sole writer of the ingest store.
type Store interface {
	Watermark(ctx context.Context) (*time.Time, error)
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	AppendMessages(ctx context.Context, msgs []model.IngestedMessage) error
	ListMessages(ctx context.Context) ([]model.IngestedMessage, error)
}

// Renderer regenerates the derived human-readable view after a merge.
type Renderer interface {
	Render(ctx context.Context, msgs []model.IngestedMessage) error
}

// Result is the run-level summary of one sync.
type Result struct {
	// WindowStart is the lower bound of the fetch window used.
	WindowStart time.Time

	// Scanned counts window messages that were not already in the store.
	Scanned int

	// SkippedDuplicate counts window messages dropped because their ID
	// was already ingested.
	SkippedDuplicate int

	// Ingested counts newly appended records.
	Ingested int

	// DecodeFailures counts messages skipped because their body could
	// not be fetched or decoded.
	DecodeFailures int

	// RenderWarning is set when the digest regeneration failed; the
	// ingestion itself still succeeded.
	RenderWarning error
}

// Engine is the incremental sync engine. Runs are sequential; one mailbox
// session is used per run.
type Engine struct {
	store        Store
	receiver     mailbox.Receiver
	classifier   *classify.Classifier
	renderer     Renderer
	lookbackDays int
	logger       *slog.Logger

	now func() time.Time
}

// New creates a sync engine. renderer may be nil to skip the derived view.
func New(
	store Store,
	receiver mailbox.Receiver,
	classifier *classify.Classifier,
	renderer Renderer,
	lookbackDays int,
	logger *slog.Logger,
) *Engine {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	return &Engine{
		store:        store,
		receiver:     receiver,
		classifier:   classifier,
		renderer:     renderer,
		lookbackDays: lookbackDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Sync performs one incremental run. It is idempotent: with no new mail in
// the window it appends nothing. Mailbox and store failures abort the run;
// per-message decode failures are logged and skipped.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	result := &Result{}

	watermark, err := e.store.Watermark(ctx)
	if err != nil {
		return result, fmt.Errorf("deriving watermark: %w", err)
	}

	result.WindowStart = e.windowStart(watermark)

	if watermark != nil {
		e.logger.Info("incremental sync",
			"watermark", watermark.Format(time.RFC3339),
			"since", result.WindowStart.Format("2006-01-02"),
		)
	} else {
		e.logger.Info("full sync",
			"lookback_days", e.lookbackDays,
			"since", result.WindowStart.Format("2006-01-02"),
		)
	}

	known, err := e.store.KnownIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("loading known ids: %w", err)
	}

	envelopes, err := e.receiver.ListSince(ctx, result.WindowStart)
	if err != nil {
		return result, fmt.Errorf("listing mailbox: %w", err)
	}

	var batch []model.IngestedMessage
	ingestedAt := e.now()

	for _, env := range envelopes {
		if _, seen := known[env.ID]; seen {
			result.SkippedDuplicate++
			continue
		}
		result.Scanned++

		if !e.classifier.Match(env.Sender, env.Subject) {
			// Non-matching mail is dropped without an audit trail;
			// the debug line is the only trace.
			e.logger.Debug("message not classified", "id", env.ID, "subject", env.Subject)
			continue
		}

		msg, err := e.receiver.FetchBody(ctx, env.ID)
		if err != nil {
			result.DecodeFailures++
			e.logger.Warn("skipping undecodable message", "id", env.ID, "error", err)
			continue
		}

		batch = append(batch, model.IngestedMessage{
			EmailID:    msg.ID,
			SentAt:     msg.SentAt,
			Sender:     msg.Sender,
			Subject:    msg.Subject,
			Body:       msg.Body,
			IngestedAt: ingestedAt,
		})

		e.logger.Info("classified message", "id", env.ID, "subject", env.Subject)
	}

	if err := e.store.AppendMessages(ctx, batch); err != nil {
		return result, fmt.Errorf("merging messages: %w", err)
	}
	result.Ingested = len(batch)

	if e.renderer != nil {
		if err := e.renderDigest(ctx); err != nil {
			// A broken derived view never fails the ingestion.
			result.RenderWarning = err
			e.logger.Warn("digest render failed", "error", err)
		}
	}

	return result, nil
}

// windowStart computes the lower bound of the fetch window. The one-day
// offset past the watermark compensates for the inclusive day-granular
// SINCE semantics of mailbox searches: mail dated exactly on the watermark
// day must not be re-fetched.
func (e *Engine) windowStart(watermark *time.Time) time.Time {
	if watermark != nil {
		return watermark.Add(24 * time.Hour)
	}
	return e.now().AddDate(0, 0, -e.lookbackDays)
}

// renderDigest regenerates the markdown view from the full store.
func (e *Engine) renderDigest(ctx context.Context) error {
	msgs, err := e.store.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("listing messages for digest: %w", err)
	}
	return e.renderer.Render(ctx, msgs)
}
