package draft

import "time"

// DoubleState is the sub-machine position of a double-or-nothing round.
type DoubleState string

const (
	DoubleVoting      DoubleState = "voting"
	DoubleLoserSelect DoubleState = "loser_select"
	DoubleCollecting  DoubleState = "collecting"
	DoubleComplete    DoubleState = "complete"
	DoubleClosed      DoubleState = "closed"
)

// DoubleRecord is the vote-gated rematch flow attached to a finalized money
// draft. Round is a generation token: countdown watchers capture it and
// stand down once it moves on.
type DoubleRecord struct {
	State      DoubleState     `json:"state"`
	Votes      []string        `json:"votes,omitempty"`
	Deadline   *time.Time      `json:"deadline,omitempty"`
	Round      int             `json:"round"`
	LoserVotes map[string]Team `json:"loser_votes,omitempty"`
	LoserTeam  Team            `json:"loser_team,omitempty"`
}

// BeginDouble attaches a fresh voting record. Only meaningful for money
// drafts with finalized teams; the caller enforces that.
func (d *Draft) BeginDouble() *DoubleRecord {
	d.Double = &DoubleRecord{State: DoubleVoting}
	return d.Double
}

func (r *DoubleRecord) hasVote(playerID string) bool {
	for _, id := range r.Votes {
		if id == playerID {
			return true
		}
	}
	return false
}

// DoubleVoteResult describes what a vote changed.
type DoubleVoteResult struct {
	Changed       bool
	WindowStarted bool
	AllVoted      bool
}

// CastDoubleVote records one player's rematch vote with set semantics. The
// first vote arms the countdown window; the last one moves to loser_select.
func (d *Draft) CastDoubleVote(playerID string, now time.Time, window time.Duration) (DoubleVoteResult, error) {
	r := d.Double
	if r == nil {
		return DoubleVoteResult{}, ErrWrongPhase
	}
	if r.State == DoubleClosed || r.State == DoubleComplete {
		return DoubleVoteResult{}, ErrDoubleClosed
	}
	if r.State != DoubleVoting {
		return DoubleVoteResult{}, ErrWrongPhase
	}
	if !d.Queued(playerID) {
		return DoubleVoteResult{}, ErrNotQueued
	}
	if r.hasVote(playerID) {
		return DoubleVoteResult{}, nil
	}

	r.Votes = append(r.Votes, playerID)
	result := DoubleVoteResult{Changed: true}
	if len(r.Votes) == 1 {
		deadline := now.Add(window)
		r.Deadline = &deadline
		r.Round++
		result.WindowStarted = true
	}
	if len(r.Votes) == len(d.Players) {
		r.State = DoubleLoserSelect
		r.Deadline = nil
		r.Round++
		result.AllVoted = true
	}

	return result, nil
}

// ExpireDoubleIfDue resets a partially voted window whose deadline has
// passed. Votes clear silently and the countdown re-arms on the next vote.
func (d *Draft) ExpireDoubleIfDue(now time.Time) bool {
	r := d.Double
	if r == nil || r.State != DoubleVoting || r.Deadline == nil {
		return false
	}
	if now.Before(*r.Deadline) {
		return false
	}

	r.Votes = nil
	r.Deadline = nil
	r.Round++
	return true
}

// LoserVoteResult describes the outcome of a captain's loser vote.
type LoserVoteResult struct {
	Resolved  bool
	Disagreed bool
	Loser     Team
}

// CastLoserVote records a captain's pick of the losing team. Agreement
// moves to collecting; disagreement clears both votes and stays put.
func (d *Draft) CastLoserVote(captainID string, loser Team) (LoserVoteResult, error) {
	r := d.Double
	if r == nil || r.State != DoubleLoserSelect {
		return LoserVoteResult{}, ErrWrongPhase
	}
	if !d.IsCaptain(captainID) {
		return LoserVoteResult{}, ErrNotCaptain
	}
	if loser != Team1 && loser != Team2 {
		return LoserVoteResult{}, ErrNotAvailable
	}

	if r.LoserVotes == nil {
		r.LoserVotes = make(map[string]Team, 2)
	}
	r.LoserVotes[captainID] = loser
	if len(r.LoserVotes) < 2 {
		return LoserVoteResult{}, nil
	}

	first := r.LoserVotes[d.Captains.Team1]
	second := r.LoserVotes[d.Captains.Team2]
	if first != second {
		r.LoserVotes = nil
		return LoserVoteResult{Disagreed: true}, nil
	}

	r.State = DoubleCollecting
	r.LoserTeam = first
	r.LoserVotes = nil
	r.Round++
	return LoserVoteResult{Resolved: true, Loser: first}, nil
}

// MarkDoubleComplete finishes the rematch round. Terminal. Fails when no
// collection is in flight.
func (d *Draft) MarkDoubleComplete() error {
	if d.Double == nil || d.Double.State != DoubleCollecting {
		return ErrNoActiveRound
	}
	d.Double.State = DoubleComplete
	d.Double.Round++
	return nil
}

// CloseDouble disables further voting from any non-terminal state.
func (d *Draft) CloseDouble() {
	if d.Double != nil && d.Double.State != DoubleComplete {
		d.Double.State = DoubleClosed
		d.Double.Round++
	}
}

func (r DoubleRecord) clone() DoubleRecord {
	copied := r
	copied.Votes = append([]string(nil), r.Votes...)
	if r.Deadline != nil {
		deadline := *r.Deadline
		copied.Deadline = &deadline
	}
	if r.LoserVotes != nil {
		copied.LoserVotes = make(map[string]Team, len(r.LoserVotes))
		for k, v := range r.LoserVotes {
			copied.LoserVotes[k] = v
		}
	}
	return copied
}
