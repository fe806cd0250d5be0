package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/blurexe/draftcore/internal/domain/draft"
	idgen "github.com/blurexe/draftcore/internal/platform/id"
	"github.com/blurexe/draftcore/internal/platform/logging"
)

type DraftServiceConfig struct {
	QueueReapAfter         time.Duration
	QueueReapInterval      time.Duration
	DoubleVoteWindow       time.Duration
	DoubleVoteTick         time.Duration
	DoubleStakesMultiplier int64
	FeedPollInterval       time.Duration
}

// DraftService owns every Draft record. All mutation is a load-mutate-save
// under the draft's lock, whether it comes from a user command, the payment
// pump, or a timer.
type DraftService struct {
	repo     draft.Repository
	ids      idgen.Generator
	notes    idgen.NoteCodeGenerator
	notifier Notifier
	gate     Gatekeeper
	feed     PaymentFeed
	cfg      DraftServiceConfig
	logger   *logging.Logger
	locks    draftLocks
	now      func() time.Time
	drawPair func(n int) (int, int)
}

func NewDraftService(
	repo draft.Repository,
	ids idgen.Generator,
	notes idgen.NoteCodeGenerator,
	notifier Notifier,
	gate Gatekeeper,
	feed PaymentFeed,
	cfg DraftServiceConfig,
	logger *logging.Logger,
) *DraftService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if gate == nil {
		gate = NewAllowAllGatekeeper()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.QueueReapAfter <= 0 {
		cfg.QueueReapAfter = 10 * time.Minute
	}
	if cfg.QueueReapInterval <= 0 {
		cfg.QueueReapInterval = time.Minute
	}
	if cfg.DoubleVoteWindow <= 0 {
		cfg.DoubleVoteWindow = time.Minute
	}
	if cfg.DoubleVoteTick <= 0 {
		cfg.DoubleVoteTick = 5 * time.Second
	}
	if cfg.DoubleStakesMultiplier <= 0 {
		cfg.DoubleStakesMultiplier = 2
	}
	if cfg.FeedPollInterval <= 0 {
		cfg.FeedPollInterval = 15 * time.Second
	}

	return &DraftService{
		repo:     repo,
		ids:      ids,
		notes:    notes,
		notifier: notifier,
		gate:     gate,
		feed:     feed,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		drawPair: drawDistinctPair,
	}
}

// drawDistinctPair picks two distinct indices uniformly without
// replacement.
func drawDistinctPair(n int) (int, int) {
	first := rand.IntN(n)
	second := rand.IntN(n - 1)
	if second >= first {
		second++
	}
	return first, second
}

type CreateDraftInput struct {
	TeamSize   int
	Money      bool
	EntryCents int64
	Snake      bool
}

func (s *DraftService) CreateDraft(ctx context.Context, input CreateDraftInput) (draft.Draft, error) {
	if input.TeamSize < 2 {
		return draft.Draft{}, fmt.Errorf("%w: team size must be at least 2", ErrInvalidInput)
	}
	if input.Money && input.EntryCents <= 0 {
		return draft.Draft{}, fmt.Errorf("%w: money draft requires a positive entry fee", ErrInvalidInput)
	}

	draftID, err := s.ids.NewID()
	if err != nil {
		return draft.Draft{}, fmt.Errorf("generate draft id: %w", err)
	}

	d, err := draft.New(draftID, input.TeamSize, input.Money, input.EntryCents, input.Snake, s.now().UTC())
	if err != nil {
		return draft.Draft{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return draft.Draft{}, fmt.Errorf("save draft: %w", err)
	}

	s.notify(ctx, NotifyQueueChanged, d.ID, map[string]any{
		"players":  []string{},
		"capacity": d.Capacity(),
	})
	return d, nil
}

func (s *DraftService) GetDraft(ctx context.Context, draftID string) (draft.Draft, error) {
	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return draft.Draft{}, fmt.Errorf("%w: draft=%s", ErrNotFound, draftID)
	}

	return d, nil
}

func (s *DraftService) Join(ctx context.Context, draftID, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if err := s.gate.CanJoin(ctx, playerID); err != nil {
		return fmt.Errorf("%w: player=%s: %v", ErrUnauthorized, playerID, err)
	}

	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if err := d.Join(playerID); err != nil {
			return fmt.Errorf("join draft=%s: %w", draftID, err)
		}

		s.notifyQueue(ctx, d)
		if len(d.Players) == d.Capacity() {
			return s.startPicking(ctx, d)
		}
		return nil
	})
}

func (s *DraftService) Leave(ctx context.Context, draftID, playerID string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if err := d.Leave(playerID); err != nil {
			return fmt.Errorf("leave draft=%s: %w", draftID, err)
		}

		s.notifyQueue(ctx, d)
		return nil
	})
}

func (s *DraftService) ForceStart(ctx context.Context, draftID string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if err := d.CheckForceStart(); err != nil {
			return fmt.Errorf("force start draft=%s: %w", draftID, err)
		}
		return s.startPicking(ctx, d)
	})
}

func (s *DraftService) Pick(ctx context.Context, draftID, actorID, targetID string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if err := d.Pick(actorID, targetID); err != nil {
			return fmt.Errorf("pick draft=%s target=%s: %w", draftID, targetID, err)
		}

		s.notify(ctx, NotifyPickMade, d.ID, map[string]any{
			"captain":    actorID,
			"player":     targetID,
			"picks_made": d.PicksMade(),
			"next_turn":  string(d.PickTurn),
		})

		if d.Phase == draft.PhaseTeamsFinalized {
			return s.finalizeTeams(ctx, d)
		}
		return nil
	})
}

func (s *DraftService) SubmitPayerTag(ctx context.Context, draftID, playerID, tag string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if !d.Money {
			return fmt.Errorf("%w: draft=%s takes no payments", ErrInvalidInput, draftID)
		}
		if err := d.SetPlayerTag(playerID, tag); err != nil {
			return fmt.Errorf("submit payer tag draft=%s: %w", draftID, err)
		}

		if !d.AllTagged() {
			return nil
		}
		s.notify(ctx, NotifyAllPlayersTagged, d.ID, nil)
		if d.MiddlemanID != "" && d.Phase == draft.PhaseTeamsFinalized {
			return s.openEntryRound(ctx, d)
		}
		return nil
	})
}

func (s *DraftService) SubmitMiddlemanTag(ctx context.Context, draftID, userID, payoutTag string) error {
	if err := s.gate.CanHoldPot(ctx, userID); err != nil {
		return fmt.Errorf("%w: user=%s: %v", ErrUnauthorized, userID, err)
	}

	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if !d.Money {
			return fmt.Errorf("%w: draft=%s takes no payments", ErrInvalidInput, draftID)
		}
		if err := d.SetMiddleman(userID, payoutTag); err != nil {
			return fmt.Errorf("submit middleman tag draft=%s: %w", draftID, err)
		}

		if d.AllTagged() && d.Phase == draft.PhaseTeamsFinalized {
			return s.openEntryRound(ctx, d)
		}
		return nil
	})
}

// ManualStart lets the middleman bypass the payment wait. During a double
// collection it marks the rematch round complete instead.
func (s *DraftService) ManualStart(ctx context.Context, draftID, actorID string) error {
	return s.withDraft(ctx, draftID, func(d *draft.Draft) error {
		if d.MiddlemanID == "" || actorID != d.MiddlemanID {
			return fmt.Errorf("manual start draft=%s: %w", draftID, draft.ErrNotMiddleman)
		}

		if d.Phase == draft.PhaseDoubleOrNothing {
			if err := d.MarkDoubleComplete(); err != nil {
				return fmt.Errorf("manual start draft=%s: %w", draftID, err)
			}
			s.notify(ctx, NotifyDoubleComplete, d.ID, map[string]any{"manual": true})
			return nil
		}

		switch d.Phase {
		case draft.PhaseTeamsFinalized, draft.PhasePaymentCollection:
			s.startDraft(ctx, d)
			return nil
		case draft.PhaseStarted, draft.PhaseCompleted:
			return fmt.Errorf("%w: draft=%s already started", ErrConflict, draftID)
		default:
			return fmt.Errorf("manual start draft=%s phase=%s: %w", draftID, d.Phase, draft.ErrWrongPhase)
		}
	})
}

func (s *DraftService) CloseDraft(ctx context.Context, draftID string) error {
	s.locks.Lock(draftID)
	defer s.locks.Unlock(draftID)

	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: draft=%s", ErrNotFound, draftID)
	}

	d.CloseDouble()
	if err := s.repo.Delete(ctx, draftID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	s.notify(ctx, NotifyDraftClosed, draftID, map[string]any{"reason": "closed"})
	return nil
}

// EndDraft records a result. winner may be TeamNone when the match ended
// without a declared winner. A money draft with the rematch decision still
// open moves to completed and stays around for the double flow; everything
// else tears down immediately.
func (s *DraftService) EndDraft(ctx context.Context, draftID string, winner draft.Team) error {
	if winner != draft.TeamNone && winner != draft.Team1 && winner != draft.Team2 {
		return fmt.Errorf("%w: unknown team %q", ErrInvalidInput, winner)
	}

	s.locks.Lock(draftID)
	defer s.locks.Unlock(draftID)

	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: draft=%s", ErrNotFound, draftID)
	}

	awaitingDouble := d.Money && d.Double != nil &&
		(d.Double.State == draft.DoubleVoting || d.Double.State == draft.DoubleLoserSelect)

	if awaitingDouble {
		d.Phase = draft.PhaseCompleted
		if err := s.repo.Save(ctx, d); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
	} else if err := s.repo.Delete(ctx, draftID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	s.notify(ctx, NotifyDraftEnded, draftID, map[string]any{
		"winner":          string(winner),
		"team1":           d.TeamMembers(draft.Team1),
		"team2":           d.TeamMembers(draft.Team2),
		"awaiting_double": awaitingDouble,
	})
	return nil
}

// RunQueueReaper tears down drafts that sat in queueing with nobody joined
// past the configured window. Runs until ctx is done.
func (s *DraftService) RunQueueReaper(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.QueueReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.reapIdleQueues(ctx)
		}
	}
}

func (s *DraftService) reapIdleQueues(ctx context.Context) {
	drafts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list drafts for reaper failed", "error", err)
		return
	}

	cutoff := s.now().UTC().Add(-s.cfg.QueueReapAfter)
	for _, candidate := range drafts {
		if candidate.Phase != draft.PhaseQueueing || len(candidate.Players) > 0 {
			continue
		}
		if candidate.CreatedAt.After(cutoff) {
			continue
		}
		s.reapDraft(ctx, candidate.ID, cutoff)
	}
}

func (s *DraftService) reapDraft(ctx context.Context, draftID string, cutoff time.Time) {
	s.locks.Lock(draftID)
	defer s.locks.Unlock(draftID)

	// Re-check under the lock: a player may have joined since the scan.
	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		s.logger.WarnContext(ctx, "reaper load failed", "draft_id", draftID, "error", err)
		return
	}
	if !ok || d.Phase != draft.PhaseQueueing || len(d.Players) > 0 || d.CreatedAt.After(cutoff) {
		return
	}

	if err := s.repo.Delete(ctx, draftID); err != nil {
		s.logger.WarnContext(ctx, "reaper delete failed", "draft_id", draftID, "error", err)
		return
	}

	s.logger.InfoContext(ctx, "idle queue reaped", "draft_id", draftID)
	s.notify(ctx, NotifyDraftClosed, draftID, map[string]any{"reason": "idle_queue"})
}

func (s *DraftService) startPicking(ctx context.Context, d *draft.Draft) error {
	first, second := s.drawPair(len(d.Players))
	if err := d.AssignCaptains(d.Players[first], d.Players[second]); err != nil {
		return fmt.Errorf("assign captains draft=%s: %w", d.ID, err)
	}

	s.notify(ctx, NotifyCaptainsSelected, d.ID, map[string]any{
		"team1_captain": d.Captains.Team1,
		"team2_captain": d.Captains.Team2,
		"pool":          d.Available,
		"snake":         d.Snake,
	})
	return nil
}

func (s *DraftService) finalizeTeams(ctx context.Context, d *draft.Draft) error {
	s.notify(ctx, NotifyTeamsFinalized, d.ID, map[string]any{
		"team1": d.TeamMembers(draft.Team1),
		"team2": d.TeamMembers(draft.Team2),
	})

	if !d.Money {
		s.startDraft(ctx, d)
		return nil
	}

	d.BeginDouble()
	s.notify(ctx, NotifyDoublePrompt, d.ID, map[string]any{
		"votes_needed": len(d.Players),
	})

	if d.MiddlemanID != "" && d.AllTagged() {
		return s.openEntryRound(ctx, d)
	}
	return nil
}

func (s *DraftService) openEntryRound(ctx context.Context, d *draft.Draft) error {
	note, err := s.notes.NewNoteCode()
	if err != nil {
		return fmt.Errorf("generate note code: %w", err)
	}
	if _, err := d.OpenPaymentRound(note, d.Players, d.EntryCents); err != nil {
		return fmt.Errorf("open payment round draft=%s: %w", d.ID, err)
	}

	d.Phase = draft.PhasePaymentCollection
	s.notify(ctx, NotifyPaymentRoundOpened, d.ID, map[string]any{
		"note_code":    note,
		"payout_tag":   d.MiddlemanTag,
		"amount_cents": d.EntryCents,
		"total_cents":  d.EntryCents * int64(len(d.Players)),
	})
	return nil
}

func (s *DraftService) startDraft(ctx context.Context, d *draft.Draft) {
	d.Phase = draft.PhaseStarted
	s.notify(ctx, NotifyDraftStarted, d.ID, map[string]any{
		"team1": d.TeamMembers(draft.Team1),
		"team2": d.TeamMembers(draft.Team2),
		"snake": d.Snake,
	})
}

func (s *DraftService) withDraft(ctx context.Context, draftID string, fn func(d *draft.Draft) error) error {
	s.locks.Lock(draftID)
	defer s.locks.Unlock(draftID)

	d, ok, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: draft=%s", ErrNotFound, draftID)
	}

	if err := fn(&d); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *DraftService) notifyQueue(ctx context.Context, d *draft.Draft) {
	s.notify(ctx, NotifyQueueChanged, d.ID, map[string]any{
		"players":  append([]string(nil), d.Players...),
		"capacity": d.Capacity(),
	})
}

func (s *DraftService) notify(ctx context.Context, kind NotificationKind, draftID string, payload map[string]any) {
	err := s.notifier.Notify(ctx, Notification{Kind: kind, DraftID: draftID, Payload: payload})
	if err != nil {
		s.logger.WarnContext(ctx, "notify failed", "kind", kind, "draft_id", draftID, "error", err)
	}
}
