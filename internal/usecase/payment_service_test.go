package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/blurexe/draftcore/internal/domain/draft"
	"github.com/blurexe/draftcore/internal/domain/payment"
)

// setupCollectingDraft walks a money draft to payment_collection. Players
// p1..p4 carry tags payer-0..payer-3; the open round uses note code ABC.
func setupCollectingDraft(t *testing.T, service *DraftService) string {
	t.Helper()

	created, err := service.CreateDraft(t.Context(), CreateDraftInput{
		TeamSize:   2,
		Money:      true,
		EntryCents: 1000,
	})
	if err != nil {
		t.Fatalf("create draft failed: %v", err)
	}

	players := []string{"p1", "p2", "p3", "p4"}
	fillQueue(t, service, created.ID, players)
	for i, playerID := range players {
		if err := service.SubmitPayerTag(t.Context(), created.ID, playerID, fmt.Sprintf("payer-%d", i)); err != nil {
			t.Fatalf("submit tag for %s failed: %v", playerID, err)
		}
	}
	if err := service.SubmitMiddlemanTag(t.Context(), created.ID, "mm-1", "pot-holder"); err != nil {
		t.Fatalf("submit middleman tag failed: %v", err)
	}

	if err := service.Pick(t.Context(), created.ID, "p1", "p3"); err != nil {
		t.Fatalf("first pick failed: %v", err)
	}
	if err := service.Pick(t.Context(), created.ID, "p2", "p4"); err != nil {
		t.Fatalf("second pick failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Phase != draft.PhasePaymentCollection {
		t.Fatalf("expected payment_collection, got %s", d.Phase)
	}
	if d.Ledger == nil || d.Ledger.NoteCode != "ABC" {
		t.Fatalf("expected open round with note ABC, got %+v", d.Ledger)
	}
	return created.ID
}

func paymentEvent(id, sender, note string, amount int64) payment.ParsedPaymentEvent {
	return payment.ParsedPaymentEvent{
		ID:             id,
		RawSenderLabel: sender,
		NoteToken:      note,
		AmountCents:    amount,
		Timestamp:      time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC),
	}
}

// Credits accumulate additively with no per-event dedup: the feed is
// assumed to deliver each payment event at most once. A redelivering
// transport would need idempotency keys on ParsedPaymentEvent.ID first.
func TestIngestPaymentEvent_AccumulatesAndCompletesOnce(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)

	// p1 covers the fee in two partial payments.
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-1", "Payer-0", "abc", 400)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-2", "Payer-0", "abc", 600)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Ledger.Paid["p1"] != 1000 {
		t.Fatalf("expected p1 paid 1000, got %d", d.Ledger.Paid["p1"])
	}
	if d.Ledger.Complete {
		t.Fatalf("round must not complete with three payers outstanding")
	}
	if notifier.count(NotifyRoundComplete) != 0 {
		t.Fatalf("unexpected round_complete notification")
	}

	for i, sender := range []string{"payer-1", "payer-2", "payer-3"} {
		ev := paymentEvent(fmt.Sprintf("ev-%d", 3+i), sender, "ABC", 1000)
		if err := service.IngestPaymentEvent(t.Context(), ev); err != nil {
			t.Fatalf("ingest for %s failed: %v", sender, err)
		}
	}

	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if !d.Ledger.Complete {
		t.Fatalf("expected round complete after every payer covered the fee")
	}
	if d.Phase != draft.PhaseStarted {
		t.Fatalf("expected draft started after entry round, got %s", d.Phase)
	}
	if notifier.count(NotifyRoundComplete) != 1 {
		t.Fatalf("expected exactly one round_complete, got %d", notifier.count(NotifyRoundComplete))
	}
	if notifier.count(NotifyPaymentObserved) != 5 {
		t.Fatalf("expected five payment_observed notifications, got %d", notifier.count(NotifyPaymentObserved))
	}

	// A late event for the completed round must not mutate anything.
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-late", "payer-0", "abc", 1000)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	d, err = service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Ledger.Paid["p1"] != 1000 {
		t.Fatalf("completed round was mutated: p1 paid %d", d.Ledger.Paid["p1"])
	}
	if notifier.count(NotifyRoundComplete) != 1 {
		t.Fatalf("round_complete fired again on a late event")
	}
}

func TestIngestPaymentEvent_UnmatchedEventsDropped(t *testing.T) {
	service, _, notifier := newTestService(t)
	draftID := setupCollectingDraft(t, service)

	// Unknown sender with the right note.
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-1", "stranger", "abc", 1000)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	// Registered sender with a note matching no open round.
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-2", "payer-0", "zzz", 1000)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	// No note at all.
	if err := service.IngestPaymentEvent(t.Context(), paymentEvent("ev-3", "payer-0", "", 1000)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	for playerID, paid := range d.Ledger.Paid {
		if paid != 0 {
			t.Fatalf("expected no credits, %s has %d", playerID, paid)
		}
	}
	if notifier.count(NotifyPaymentObserved) != 0 {
		t.Fatalf("dropped events must not emit payment_observed")
	}
}

type paymentFeedMock struct {
	mock.Mock
}

func (m *paymentFeedMock) Pull(ctx context.Context, cursor string) ([]payment.ParsedPaymentEvent, string, error) {
	args := m.Called(ctx, cursor)
	return args.Get(0).([]payment.ParsedPaymentEvent), args.String(1), args.Error(2)
}

func TestRunPaymentPump_DeliversFeedEvents(t *testing.T) {
	service, _, notifier := newTestService(t)
	service.cfg.FeedPollInterval = 5 * time.Millisecond
	draftID := setupCollectingDraft(t, service)

	batch := []payment.ParsedPaymentEvent{
		paymentEvent("ev-1", "payer-0", "abc", 1000),
		paymentEvent("ev-2", "payer-1", "abc", 1000),
	}

	feed := &paymentFeedMock{}
	feed.On("Pull", mock.Anything, "").Return(batch, "cursor-1", nil).Once()
	feed.On("Pull", mock.Anything, "cursor-1").Return([]payment.ParsedPaymentEvent(nil), "cursor-1", nil)
	service.feed = feed

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = service.RunPaymentPump(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for notifier.count(NotifyPaymentObserved) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("pump never delivered the feed batch")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	d, err := service.GetDraft(t.Context(), draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if d.Ledger.Paid["p1"] != 1000 || d.Ledger.Paid["p2"] != 1000 {
		t.Fatalf("expected feed credits applied, got %+v", d.Ledger.Paid)
	}
	feed.AssertExpectations(t)
}
