package draft

import (
	"testing"
	"time"
)

func newTestDraft(t *testing.T, teamSize int, players ...string) Draft {
	t.Helper()

	d, err := New("draft-1", teamSize, true, 1000, true, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	for _, id := range players {
		if err := d.Join(id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return d
}

func TestTurnAt_SnakeFollowsRepeatingBlock(t *testing.T) {
	// Literal construction the closed form must match: grow the pattern in
	// blocks of [team1 team2 team2 team1] and index into it.
	block := []Team{Team1, Team2, Team2, Team1}
	for k := 0; k < 32; k++ {
		want := block[k%4]
		if got := TurnAt(k, true); got != want {
			t.Fatalf("snake turn at pick %d: got %s, want %s", k, got, want)
		}
	}
}

func TestTurnAt_NonSnakeAlternates(t *testing.T) {
	want := []Team{Team1, Team2, Team1, Team2, Team1, Team2}
	for k, team := range want {
		if got := TurnAt(k, false); got != team {
			t.Fatalf("turn at pick %d: got %s, want %s", k, got, team)
		}
	}
}

func TestPick_SnakeSequenceTeamSize3(t *testing.T) {
	d := newTestDraft(t, 3, "p1", "p2", "p3", "p4", "p5", "p6")
	if err := d.AssignCaptains("p1", "p2"); err != nil {
		t.Fatalf("assign captains: %v", err)
	}

	wantTurns := []Team{Team1, Team2, Team2, Team1}
	picks := []string{"p3", "p4", "p5", "p6"}
	for i, target := range picks {
		if d.PickTurn != wantTurns[i] {
			t.Fatalf("pick %d: turn %s, want %s", i, d.PickTurn, wantTurns[i])
		}
		if err := d.Pick(d.Captain(d.PickTurn), target); err != nil {
			t.Fatalf("pick %d (%s): %v", i, target, err)
		}
	}

	if d.Phase != PhaseTeamsFinalized {
		t.Fatalf("expected teams finalized after %d picks, phase=%s", len(picks), d.Phase)
	}
	if len(d.Team1) != 2 || len(d.Team2) != 2 {
		t.Fatalf("uneven teams: team1=%v team2=%v", d.Team1, d.Team2)
	}
	if len(d.Available) != 0 {
		t.Fatalf("pool not drained: %v", d.Available)
	}
}

func TestPick_WrongTurnAndUnavailable(t *testing.T) {
	d := newTestDraft(t, 2, "p1", "p2", "p3", "p4")
	if err := d.AssignCaptains("p1", "p2"); err != nil {
		t.Fatalf("assign captains: %v", err)
	}

	if err := d.Pick("p2", "p3"); err != ErrWrongTurn {
		t.Fatalf("expected ErrWrongTurn, got %v", err)
	}
	if err := d.Pick("p1", "p2"); err != ErrNotAvailable {
		t.Fatalf("expected ErrNotAvailable picking a captain, got %v", err)
	}
	if err := d.Pick("p1", "p3"); err != nil {
		t.Fatalf("valid pick: %v", err)
	}
	if err := d.Pick("p1", "p3"); err == nil {
		t.Fatal("expected second pick of same player to fail")
	}
}

func TestJoinLeave_RosterInvariants(t *testing.T) {
	d := newTestDraft(t, 2)

	if err := d.Join("p1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := d.Join("p1"); err != ErrAlreadyQueued {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
	if err := d.Leave("ghost"); err != ErrNotQueued {
		t.Fatalf("expected ErrNotQueued, got %v", err)
	}

	for _, id := range []string{"p2", "p3", "p4"} {
		if err := d.Join(id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := d.Join("p5"); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	seen := make(map[string]bool, len(d.Players))
	for _, id := range d.Players {
		if seen[id] {
			t.Fatalf("duplicate id in roster: %s", id)
		}
		seen[id] = true
	}
}

func TestCheckForceStart(t *testing.T) {
	cases := []struct {
		players int
		wantErr error
	}{
		{3, ErrTooFewPlayers},
		{5, ErrOddPlayerCount},
		{4, nil},
		{6, nil},
	}
	for _, tc := range cases {
		d := newTestDraft(t, 4)
		for i := 0; i < tc.players; i++ {
			if err := d.Join(string(rune('a' + i))); err != nil {
				t.Fatalf("join: %v", err)
			}
		}
		if err := d.CheckForceStart(); err != tc.wantErr {
			t.Fatalf("force start with %d players: got %v, want %v", tc.players, err, tc.wantErr)
		}
	}
}
