package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blurexe/draftcore/internal/domain/draft"
)

// payEntryRound clears the open entry round so the draft starts and the
// double record is ready for voting.
func payEntryRound(t *testing.T, service *DraftService, draftID string) {
	t.Helper()
	for i := 0; i < 4; i++ {
		ev := paymentEvent(fmt.Sprintf("entry-%d", i), fmt.Sprintf("payer-%d", i), "abc", 1000)
		if err := service.IngestPaymentEvent(t.Context(), ev); err != nil {
			t.Fatalf("entry payment failed: %v", err)
		}
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Phase != draft.PhaseStarted {
		t.Fatalf("expected started after entry round, got %s", d.Phase)
	}
	if d.Double == nil || d.Double.State != draft.DoubleVoting {
		t.Fatalf("expected double record in voting, got %+v", d.Double)
	}
}

func castAllDoubleVotes(t *testing.T, service *DraftService, draftID string) {
	t.Helper()
	for _, playerID := range []string{"p1", "p2", "p3", "p4"} {
		if err := service.CastDoubleVote(t.Context(), draftID, playerID); err != nil {
			t.Fatalf("double vote by %s failed: %v", playerID, err)
		}
	}
}

func TestCastDoubleVote_AllVotesMoveToLoserSelect(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)
	payEntryRound(t, service, draftID)

	if err := service.CastDoubleVote(t.Context(), draftID, "ghost"); !errors.Is(err, draft.ErrNotQueued) {
		t.Fatalf("expected ErrNotQueued for outsider vote, got %v", err)
	}

	castAllDoubleVotes(t, service, draftID)

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Double.State != draft.DoubleLoserSelect {
		t.Fatalf("expected loser_select after full vote, got %s", d.Double.State)
	}
	if notifier.count(NotifyLoserSelectionNeeded) != 1 {
		t.Fatalf("expected one loser_selection_needed notification")
	}
	if notifier.count(NotifyDoubleVoteUpdate) != 4 {
		t.Fatalf("expected four vote updates, got %d", notifier.count(NotifyDoubleVoteUpdate))
	}

	// Repeat vote after the window closed.
	if err := service.CastDoubleVote(t.Context(), draftID, "p1"); !errors.Is(err, draft.ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase once voting ended, got %v", err)
	}
}

func TestTickDoubleCountdown_ExpiresAndStandsDown(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)
	payEntryRound(t, service, draftID)

	base := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return base }

	if err := service.CastDoubleVote(t.Context(), draftID, "p1"); err != nil {
		t.Fatalf("double vote failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	armedRound := d.Double.Round
	if d.Double.Deadline == nil || !d.Double.Deadline.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected deadline one window out, got %v", d.Double.Deadline)
	}

	// Before the deadline the tick re-renders the remaining time.
	service.now = func() time.Time { return base.Add(5 * time.Second) }
	done, err := service.tickDoubleCountdown(t.Context(), draftID, armedRound)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if done {
		t.Fatalf("watcher must keep ticking before the deadline")
	}
	render, ok := notifier.last(NotifyDoubleVoteUpdate)
	if !ok || render.Payload["remaining_secs"] != 55 {
		t.Fatalf("expected countdown render with 55s left, got %+v", render)
	}
	if render.Payload["expired"] == true {
		t.Fatalf("pre-deadline render must not be expired")
	}

	service.now = func() time.Time { return base.Add(61 * time.Second) }
	done, err = service.tickDoubleCountdown(t.Context(), draftID, armedRound)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if !done {
		t.Fatalf("watcher must stop after expiring the window")
	}

	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if len(d.Double.Votes) != 0 || d.Double.Deadline != nil {
		t.Fatalf("expected votes cleared on expiry, got %+v", d.Double)
	}
	if d.Double.Round == armedRound {
		t.Fatalf("expiry must advance the round token")
	}

	update, ok := notifier.last(NotifyDoubleVoteUpdate)
	if !ok || update.Payload["expired"] != true {
		t.Fatalf("expected an expired vote update, got %+v", update)
	}

	// A watcher holding the stale token stands down without touching state.
	done, err = service.tickDoubleCountdown(t.Context(), draftID, armedRound)
	if err != nil {
		t.Fatalf("stale tick failed: %v", err)
	}
	if !done {
		t.Fatalf("stale watcher must stand down")
	}

	// The next vote re-arms a fresh window.
	if err := service.CastDoubleVote(t.Context(), draftID, "p2"); err != nil {
		t.Fatalf("re-vote failed: %v", err)
	}
	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Double.Deadline == nil || len(d.Double.Votes) != 1 {
		t.Fatalf("expected fresh window with one vote, got %+v", d.Double)
	}
}

func TestCastLoserVote_DisagreeThenResolve(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)
	payEntryRound(t, service, draftID)
	castAllDoubleVotes(t, service, draftID)

	if err := service.CastLoserVote(t.Context(), draftID, "p3", draft.Team1); !errors.Is(err, draft.ErrNotCaptain) {
		t.Fatalf("expected ErrNotCaptain, got %v", err)
	}

	if err := service.CastLoserVote(t.Context(), draftID, "p1", draft.Team1); err != nil {
		t.Fatalf("first loser vote failed: %v", err)
	}
	if err := service.CastLoserVote(t.Context(), draftID, "p2", draft.Team2); err != nil {
		t.Fatalf("conflicting loser vote failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Double.State != draft.DoubleLoserSelect {
		t.Fatalf("disagreement must stay in loser_select, got %s", d.Double.State)
	}
	if len(d.Double.LoserVotes) != 0 {
		t.Fatalf("disagreement must clear both votes, got %+v", d.Double.LoserVotes)
	}

	if err := service.CastLoserVote(t.Context(), draftID, "p1", draft.Team2); err != nil {
		t.Fatalf("loser vote failed: %v", err)
	}
	if err := service.CastLoserVote(t.Context(), draftID, "p2", draft.Team2); err != nil {
		t.Fatalf("agreeing loser vote failed: %v", err)
	}

	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Phase != draft.PhaseDoubleOrNothing {
		t.Fatalf("expected double_or_nothing phase, got %s", d.Phase)
	}
	if d.Double.State != draft.DoubleCollecting {
		t.Fatalf("expected collecting state, got %s", d.Double.State)
	}
	if d.Ledger.NoteCode != "DEF" {
		t.Fatalf("expected a fresh note code for the double round, got %s", d.Ledger.NoteCode)
	}
	if d.Ledger.RequiredCents != 2000 {
		t.Fatalf("expected doubled stakes 2000, got %d", d.Ledger.RequiredCents)
	}
	if len(d.Ledger.Paid) != 2 {
		t.Fatalf("expected only the losing side to owe, got %+v", d.Ledger.Paid)
	}
	for _, playerID := range d.TeamMembers(draft.Team2) {
		if _, ok := d.Ledger.Paid[playerID]; !ok {
			t.Fatalf("losing team member %s missing from the round", playerID)
		}
	}

	// Losing side pays double; the rematch round completes.
	for i, sender := range []string{"payer-1", "payer-3"} {
		ev := paymentEvent(fmt.Sprintf("double-%d", i), sender, "def", 2000)
		if err := service.IngestPaymentEvent(t.Context(), ev); err != nil {
			t.Fatalf("double payment failed: %v", err)
		}
	}

	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Double.State != draft.DoubleComplete {
		t.Fatalf("expected double complete after collection, got %s", d.Double.State)
	}
	if notifier.count(NotifyDoubleComplete) != 1 {
		t.Fatalf("expected one double_complete notification")
	}
	if notifier.count(NotifyRoundComplete) != 2 {
		t.Fatalf("expected entry and double rounds each to complete once")
	}
}

func TestManualStart_CompletesDoubleCollectionOnce(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)
	payEntryRound(t, service, draftID)
	castAllDoubleVotes(t, service, draftID)

	for _, captainID := range []string{"p1", "p2"} {
		if err := service.CastLoserVote(t.Context(), draftID, captainID, draft.Team2); err != nil {
			t.Fatalf("loser vote by %s failed: %v", captainID, err)
		}
	}

	if err := service.ManualStart(t.Context(), draftID, "mm-1"); err != nil {
		t.Fatalf("manual start during collection failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Double.State != draft.DoubleComplete {
		t.Fatalf("expected double complete after manual start, got %s", d.Double.State)
	}
	complete, ok := notifier.last(NotifyDoubleComplete)
	if !ok || complete.Payload["manual"] != true {
		t.Fatalf("expected a manual double_complete, got %+v", complete)
	}

	// The round is gone; a second manual start has nothing to finish.
	if err := service.ManualStart(t.Context(), draftID, "mm-1"); !errors.Is(err, draft.ErrNoActiveRound) {
		t.Fatalf("expected ErrNoActiveRound on repeat manual start, got %v", err)
	}
}

func TestEndDraft_MoneyDraftAwaitsDoubleDecision(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)
	payEntryRound(t, service, draftID)

	if err := service.EndDraft(t.Context(), draftID, draft.Team1); err != nil {
		t.Fatalf("end draft failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("draft must survive while the rematch decision is open: %v", err)
	}
	if d.Phase != draft.PhaseCompleted {
		t.Fatalf("expected completed phase, got %s", d.Phase)
	}
	ended, ok := notifier.last(NotifyDraftEnded)
	if !ok || ended.Payload["awaiting_double"] != true {
		t.Fatalf("expected draft_ended awaiting the double flow, got %+v", ended)
	}

	// Voting stays open after the result is recorded.
	if err := service.CastDoubleVote(t.Context(), draftID, "p1"); err != nil {
		t.Fatalf("double vote after end failed: %v", err)
	}

	if err := service.CloseDraft(t.Context(), draftID); err != nil {
		t.Fatalf("close draft failed: %v", err)
	}
	if _, err := service.GetDraft(t.Context(), draftID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected draft gone after close, got %v", err)
	}
}
