package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/blurexe/draftcore/internal/platform/logging"
)

// NotificationKind enumerates everything the presentation layer can render.
type NotificationKind string

const (
	NotifyQueueChanged         NotificationKind = "queue_changed"
	NotifyCaptainsSelected     NotificationKind = "captains_selected"
	NotifyPickMade             NotificationKind = "pick_made"
	NotifyAllPlayersTagged     NotificationKind = "all_players_tagged"
	NotifyPaymentRoundOpened   NotificationKind = "payment_round_opened"
	NotifyPaymentObserved      NotificationKind = "payment_observed"
	NotifyRoundComplete        NotificationKind = "round_complete"
	NotifyDraftStarted         NotificationKind = "draft_started"
	NotifyTeamsFinalized       NotificationKind = "teams_finalized"
	NotifyDoublePrompt         NotificationKind = "double_prompt"
	NotifyDoubleVoteUpdate     NotificationKind = "double_vote_update"
	NotifyLoserSelectionNeeded NotificationKind = "loser_selection_needed"
	NotifyDoubleCollecting     NotificationKind = "double_collecting"
	NotifyDoubleComplete       NotificationKind = "double_complete"
	NotifyDraftClosed          NotificationKind = "draft_closed"
	NotifyDraftEnded           NotificationKind = "draft_ended"
)

// Notification is one event for a rendering collaborator. The core never
// holds a reference to whatever the collaborator draws with it.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	DraftID string           `json:"draft_id"`
	Payload map[string]any   `json:"payload,omitempty"`
}

// Notifier delivers notifications to the presentation layer. Delivery is
// best effort; the state machine never depends on it succeeding.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

// LogNotifier writes notifications to the log. It is the default sink
// when no chat or webhook integration is configured.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, "draft notification",
		"kind", string(n.Kind),
		"draft_id", n.DraftID,
		"payload", n.Payload,
	)
	return nil
}

const asyncNotifyTimeout = 10 * time.Second

// AsyncNotifier hands deliveries to a bounded worker pool so command
// handlers never block on the presentation layer.
type AsyncNotifier struct {
	inner  Notifier
	pool   *ants.Pool
	logger *logging.Logger
}

func NewAsyncNotifier(inner Notifier, workers int, logger *logging.Logger) (*AsyncNotifier, error) {
	if inner == nil {
		inner = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create notifier pool: %w", err)
	}

	return &AsyncNotifier{inner: inner, pool: pool, logger: logger}, nil
}

func (a *AsyncNotifier) Notify(_ context.Context, n Notification) error {
	err := a.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncNotifyTimeout)
		defer cancel()

		if err := a.inner.Notify(ctx, n); err != nil {
			a.logger.Warn("notification delivery failed",
				"kind", n.Kind,
				"draft_id", n.DraftID,
				"error", err,
			)
		}
	})
	if err != nil {
		return fmt.Errorf("submit notification: %w", err)
	}

	return nil
}

func (a *AsyncNotifier) Close() {
	a.pool.Release()
}
