package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/domain/payment"
)

// PaymentFeed pulls parsed payment events from an external source. cursor
// is an opaque resume token; implementations return the cursor for the
// next pull alongside the events.
type PaymentFeed interface {
	Pull(ctx context.Context, cursor string) ([]payment.ParsedPaymentEvent, string, error)
}

// IngestPaymentEvent routes one observed payment to the draft whose open
// ledger carries the event's note code. Events that match no open round,
// or whose sender is not a registered payer, are dropped without error.
func (s *DraftService) IngestPaymentEvent(ctx context.Context, ev payment.ParsedPaymentEvent) error {
	note := payment.Normalize(ev.NoteToken)
	if note == "" {
		s.logger.DebugContext(ctx, "payment event without note token dropped", "event_id", ev.ID)
		return nil
	}

	draftID, ok, err := s.findOpenRound(ctx, note)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.DebugContext(ctx, "payment event matched no open round", "event_id", ev.ID, "note", note)
		return nil
	}

	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		// Re-check under the lock: the round may have completed or been
		// superseded between the scan and here. A superseded round is
		// never mutated.
		if d.Ledger == nil || d.Ledger.Complete || !d.Ledger.MatchesNote(note) {
			return nil
		}

		sender := payment.Normalize(ev.RawSenderLabel)
		playerID, registered := d.Ledger.MatchSender(sender)
		if !registered {
			s.logger.DebugContext(ctx, "payment from unregistered sender dropped",
				"draft_id", d.ID,
				"event_id", ev.ID,
			)
			return nil
		}

		d.Ledger.Credit(playerID, ev.AmountCents)
		s.notify(ctx, NotifyPaymentObserved, d.ID, map[string]any{
			"player":         playerID,
			"amount_cents":   ev.AmountCents,
			"paid_cents":     d.Ledger.Paid[playerID],
			"required_cents": d.Ledger.RequiredCents,
		})

		if !d.Ledger.AllPaid() {
			return nil
		}

		d.Ledger.Complete = true
		s.notify(ctx, NotifyRoundComplete, d.ID, map[string]any{
			"note_code": d.Ledger.NoteCode,
		})
		s.settleCompletedRound(ctx, d)
		return nil
	})
}

// settleCompletedRound advances the draft once every payer in the current
// round has covered the required amount.
func (s *DraftService) settleCompletedRound(ctx context.Context, d *draft.Draft) {
	switch {
	case d.Phase == draft.PhasePaymentCollection:
		s.startDraft(ctx, d)
	case d.Double != nil && d.Double.State == draft.DoubleCollecting:
		if err := d.MarkDoubleComplete(); err != nil {
			return
		}
		s.notify(ctx, NotifyDoubleComplete, d.ID, map[string]any{"manual": false})
	}
}

func (s *DraftService) findOpenRound(ctx context.Context, note string) (string, bool, error) {
	drafts, err := s.repo.List(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list drafts: %w", err)
	}

	for _, d := range drafts {
		if d.Ledger != nil && !d.Ledger.Complete && d.Ledger.MatchesNote(note) {
			return d.ID, true, nil
		}
	}
	return "", false, nil
}

// RunPaymentPump polls the feed until ctx is done. Events are handed to
// IngestPaymentEvent one at a time in feed order; a failed pull is logged
// and retried on the next tick with the same cursor.
func (s *DraftService) RunPaymentPump(ctx context.Context) error {
	if s.feed == nil {
		s.logger.Info("no payment feed configured, pump disabled")
		return nil
	}

	ticker := time.NewTicker(s.cfg.FeedPollInterval)
	defer ticker.Stop()

	var cursor string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			events, next, err := s.feed.Pull(ctx, cursor)
			if err != nil {
				s.logger.WarnContext(ctx, "payment feed pull failed", "error", err)
				continue
			}
			cursor = next

			for _, ev := range events {
				if err := s.IngestPaymentEvent(ctx, ev); err != nil {
					s.logger.ErrorContext(ctx, "payment event ingest failed",
						"event_id", ev.ID,
						"error", err,
					)
				}
			}
		}
	}
}
