package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/blurexe/draftcore/internal/domain/draft"
)

// CastDoubleVote records a player's double-or-nothing vote. The first
// vote of a window spawns a countdown watcher that clears the tally if
// the rest of the lobby does not follow within the window.
func (s *DraftService) CastDoubleVote(ctx context.Context, draftID, playerID string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		result, err := d.CastDoubleVote(playerID, s.now().UTC(), s.cfg.DoubleVoteWindow)
		if err != nil {
			return fmt.Errorf("double vote draft=%s: %w", draftID, err)
		}
		if !result.Changed {
			return nil
		}

		s.notify(ctx, NotifyDoubleVoteUpdate, d.ID, map[string]any{
			"votes":        len(d.Double.Votes),
			"votes_needed": len(d.Players),
		})

		if result.AllVoted {
			s.notify(ctx, NotifyLoserSelectionNeeded, d.ID, map[string]any{
				"team1_captain": d.Captains.Team1,
				"team2_captain": d.Captains.Team2,
			})
			return nil
		}
		if result.WindowStarted {
			// Detached from the request: the watcher outlives the handler.
			go s.watchDoubleCountdown(context.WithoutCancel(ctx), draftID, d.Double.Round)
		}
		return nil
	})
}

// watchDoubleCountdown ticks until the vote window it was armed for
// expires or is superseded. round is the generation token captured at
// arm time; any state change bumps it and the watcher stands down.
func (s *DraftService) watchDoubleCountdown(ctx context.Context, draftID string, round int) {
	ticker := time.NewTicker(s.cfg.DoubleVoteTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		done, err := s.tickDoubleCountdown(ctx, draftID, round)
		if err != nil {
			s.logger.WarnContext(ctx, "double countdown tick failed", "draft_id", draftID, "error", err)
			return
		}
		if done {
			return
		}
	}
}

func (s *DraftService) tickDoubleCountdown(ctx context.Context, draftID string, round int) (bool, error) {
	s.locks.Lock(draftID)
	defer s.locks.Unlock(draftID)

	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return false, fmt.Errorf("load draft: %w", err)
	}
	if !ok || d.Double == nil || d.Double.Round != round {
		return true, nil
	}

	now := s.now().UTC()
	if !d.ExpireDoubleIfDue(now) {
		// Re-render remaining time so the lobby sees the clock move.
		if d.Double.Deadline != nil {
			s.notify(ctx, NotifyDoubleVoteUpdate, d.ID, map[string]any{
				"votes":          len(d.Double.Votes),
				"votes_needed":   len(d.Players),
				"remaining_secs": int(d.Double.Deadline.Sub(now) / time.Second),
			})
		}
		return false, nil
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return false, fmt.Errorf("save draft: %w", err)
	}

	s.notify(ctx, NotifyDoubleVoteUpdate, d.ID, map[string]any{
		"votes":        0,
		"votes_needed": len(d.Players),
		"expired":      true,
	})
	return true, nil
}

// CastLoserVote records one captain's call on which team lost. Matching
// calls open the doubled payment round for the losing side.
func (s *DraftService) CastLoserVote(ctx context.Context, draftID, captainID string, loser draft.Team) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		result, err := d.CastLoserVote(captainID, loser)
		if err != nil {
			return fmt.Errorf("loser vote draft=%s: %w", draftID, err)
		}

		if result.Disagreed {
			s.notify(ctx, NotifyLoserSelectionNeeded, d.ID, map[string]any{
				"team1_captain": d.Captains.Team1,
				"team2_captain": d.Captains.Team2,
				"disagreed":     true,
			})
			return nil
		}
		if !result.Resolved {
			return nil
		}

		return s.openDoubleRound(ctx, d, result.Loser)
	})
}

func (s *DraftService) openDoubleRound(ctx context.Context, d *draft.Draft, loser draft.Team) error {
	note, err := s.notes.NewNoteCode()
	if err != nil {
		return fmt.Errorf("generate note code: %w", err)
	}

	amount := d.EntryCents * s.cfg.DoubleStakesMultiplier
	payers := d.TeamMembers(loser)
	if _, err := d.OpenPaymentRound(note, payers, amount); err != nil {
		return fmt.Errorf("open double round draft=%s: %w", d.ID, err)
	}

	d.Phase = draft.PhaseDoubleOrNothing
	s.notify(ctx, NotifyDoubleCollecting, d.ID, map[string]any{
		"loser_team": string(loser),
	})
	s.notify(ctx, NotifyPaymentRoundOpened, d.ID, map[string]any{
		"note_code":    note,
		"payout_tag":   d.MiddlemanTag,
		"amount_cents": amount,
		"total_cents":  amount * int64(len(payers)),
	})
	return nil
}
