package payfeed

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blurexe/draftcore/internal/platform/logging"
	"github.com/blurexe/draftcore/internal/platform/resilience"
	"github.com/blurexe/draftcore/internal/usecase"
)

func TestClient_Pull_MapsEventsAndCursor(t *testing.T) {
	var gotAuth, gotCursor string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCursor = r.URL.Query().Get("cursor")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"events": [
				{"id": "ev-1", "sender": "Blur#123", "note": "XQJ", "amount_cents": 1000, "timestamp": "2026-03-14T20:30:00Z"}
			],
			"next_cursor": "cursor-2"
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Token:   "secret-token",
		Logger:  logging.NewNop(),
	})

	events, next, err := client.Pull(t.Context(), "cursor-1")
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotCursor != "cursor-1" {
		t.Fatalf("expected cursor forwarded, got %q", gotCursor)
	}
	if next != "cursor-2" {
		t.Fatalf("expected next cursor cursor-2, got %q", next)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	ev := events[0]
	if ev.ID != "ev-1" || ev.RawSenderLabel != "Blur#123" || ev.NoteToken != "XQJ" || ev.AmountCents != 1000 {
		t.Fatalf("unexpected event mapping: %+v", ev)
	}
	if !ev.Timestamp.Equal(time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", ev.Timestamp)
	}
}

func TestClient_Pull_EmptyPageKeepsCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": [], "next_cursor": ""}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})

	events, next, err := client.Pull(t.Context(), "cursor-9")
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	if next != "cursor-9" {
		t.Fatalf("drained feed must keep the cursor, got %q", next)
	}
}

func TestClient_Pull_NonRetryableStatusFailsFast(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 3,
		Logger:     logging.NewNop(),
	})

	if _, _, err := client.Pull(t.Context(), ""); err == nil {
		t.Fatalf("expected error on 400")
	}
	if calls != 1 {
		t.Fatalf("400 must not be retried, got %d calls", calls)
	}
}

func TestClient_Pull_CircuitOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, _, err := client.Pull(t.Context(), ""); err == nil {
			t.Fatalf("expected transient failure on attempt %d", i)
		}
	}

	_, _, err := client.Pull(t.Context(), "")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable once the circuit opened, got %v", err)
	}
}
