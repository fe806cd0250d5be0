package draft

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the lifecycle position of a draft.
type Phase string

const (
	PhaseQueueing          Phase = "queueing"
	PhaseCaptainPick       Phase = "captain_pick"
	PhaseTeamsFinalized    Phase = "teams_finalized"
	PhasePaymentCollection Phase = "payment_collection"
	PhaseStarted           Phase = "started"
	PhaseCompleted         Phase = "completed"
	PhaseDoubleOrNothing   Phase = "double_or_nothing"
	PhaseClosed            Phase = "closed"
)

// Team identifies one side of a draft.
type Team string

const (
	TeamNone Team = ""
	Team1    Team = "team1"
	Team2    Team = "team2"
)

// Captains holds the randomly drawn team captains.
type Captains struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

// Draft is one team-formation (and optional wagering) event. It is a plain
// value; all mutation happens through its methods under the owning
// service's per-draft lock.
type Draft struct {
	ID           string            `json:"id"`
	Phase        Phase             `json:"phase"`
	TeamSize     int               `json:"team_size"`
	Snake        bool              `json:"snake"`
	Money        bool              `json:"money"`
	EntryCents   int64             `json:"entry_cents"`
	CreatedAt    time.Time         `json:"created_at"`
	Players      []string          `json:"players"`
	Captains     Captains          `json:"captains"`
	Team1        []string          `json:"team1"`
	Team2        []string          `json:"team2"`
	Available    []string          `json:"available"`
	PickTurn     Team              `json:"pick_turn"`
	PlayerTags   map[string]string `json:"player_tags,omitempty"`
	MiddlemanID  string            `json:"middleman_id,omitempty"`
	MiddlemanTag string            `json:"middleman_tag,omitempty"`
	Ledger       *Ledger           `json:"ledger,omitempty"`
	Double       *DoubleRecord     `json:"double,omitempty"`
}

func New(id string, teamSize int, money bool, entryCents int64, snake bool, createdAt time.Time) (Draft, error) {
	if id == "" {
		return Draft{}, fmt.Errorf("draft id is required")
	}
	if teamSize < 2 {
		return Draft{}, fmt.Errorf("team size must be at least 2, got %d", teamSize)
	}
	if money && entryCents <= 0 {
		return Draft{}, fmt.Errorf("money draft requires a positive entry fee")
	}

	return Draft{
		ID:         id,
		Phase:      PhaseQueueing,
		TeamSize:   teamSize,
		Snake:      snake,
		Money:      money,
		EntryCents: entryCents,
		CreatedAt:  createdAt,
		PickTurn:   Team1,
		PlayerTags: make(map[string]string),
	}, nil
}

// Capacity is the number of queue slots, captains included.
func (d *Draft) Capacity() int {
	return d.TeamSize * 2
}

func (d *Draft) Queued(playerID string) bool {
	for _, id := range d.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

func (d *Draft) Join(playerID string) error {
	if d.Phase != PhaseQueueing {
		return ErrWrongPhase
	}
	if d.Queued(playerID) {
		return ErrAlreadyQueued
	}
	if len(d.Players) >= d.Capacity() {
		return ErrQueueFull
	}

	d.Players = append(d.Players, playerID)
	return nil
}

func (d *Draft) Leave(playerID string) error {
	if d.Phase != PhaseQueueing {
		return ErrWrongPhase
	}
	for i, id := range d.Players {
		if id == playerID {
			d.Players = append(d.Players[:i], d.Players[i+1:]...)
			return nil
		}
	}

	return ErrNotQueued
}

// CheckForceStart validates the roster for an under-filled start.
func (d *Draft) CheckForceStart() error {
	if d.Phase != PhaseQueueing {
		return ErrWrongPhase
	}
	if len(d.Players) < 4 {
		return ErrTooFewPlayers
	}
	if len(d.Players)%2 != 0 {
		return ErrOddPlayerCount
	}

	return nil
}

// AssignCaptains moves the draft into the picking phase. Both ids must be
// rostered; everyone else becomes the undrafted pool.
func (d *Draft) AssignCaptains(c1, c2 string) error {
	if !d.Queued(c1) || !d.Queued(c2) || c1 == c2 {
		return fmt.Errorf("captains must be two distinct rostered players")
	}

	d.Captains = Captains{Team1: c1, Team2: c2}
	d.Team1 = nil
	d.Team2 = nil
	d.Available = make([]string, 0, len(d.Players)-2)
	for _, id := range d.Players {
		if id != c1 && id != c2 {
			d.Available = append(d.Available, id)
		}
	}
	d.PickTurn = Team1
	d.Phase = PhaseCaptainPick
	return nil
}

// Captain returns the captain id for a team.
func (d *Draft) Captain(t Team) string {
	if t == Team2 {
		return d.Captains.Team2
	}
	return d.Captains.Team1
}

func (d *Draft) IsCaptain(playerID string) bool {
	return playerID != "" && (playerID == d.Captains.Team1 || playerID == d.Captains.Team2)
}

// TeamMembers returns captain plus picked members for a team.
func (d *Draft) TeamMembers(t Team) []string {
	if t == Team2 {
		return append([]string{d.Captains.Team2}, d.Team2...)
	}
	return append([]string{d.Captains.Team1}, d.Team1...)
}

// SetPlayerTag records a rostered player's payer tag. Tags are stored
// trimmed and lowercased; uniqueness is case-insensitive.
func (d *Draft) SetPlayerTag(playerID, tag string) error {
	if !d.Queued(playerID) {
		return ErrNotQueued
	}
	if _, ok := d.PlayerTags[playerID]; ok {
		return ErrTagAlreadySet
	}

	tag = strings.ToLower(strings.TrimSpace(tag))
	if len(tag) <= 3 {
		return ErrTagTooShort
	}
	for _, existing := range d.PlayerTags {
		if existing == tag {
			return ErrTagTaken
		}
	}

	if d.PlayerTags == nil {
		d.PlayerTags = make(map[string]string)
	}
	d.PlayerTags[playerID] = tag
	return nil
}

// AllTagged reports whether every rostered player has submitted a tag.
func (d *Draft) AllTagged() bool {
	if len(d.Players) == 0 {
		return false
	}
	for _, id := range d.Players {
		if _, ok := d.PlayerTags[id]; !ok {
			return false
		}
	}
	return true
}

func (d *Draft) SetMiddleman(userID, payoutTag string) error {
	payoutTag = strings.TrimSpace(payoutTag)
	if len(payoutTag) <= 3 {
		return ErrTagTooShort
	}

	d.MiddlemanID = userID
	d.MiddlemanTag = payoutTag
	return nil
}

// Clone deep-copies the draft so repository reads never alias live state.
func (d Draft) Clone() Draft {
	copied := d
	copied.Players = append([]string(nil), d.Players...)
	copied.Team1 = append([]string(nil), d.Team1...)
	copied.Team2 = append([]string(nil), d.Team2...)
	copied.Available = append([]string(nil), d.Available...)
	if d.PlayerTags != nil {
		copied.PlayerTags = make(map[string]string, len(d.PlayerTags))
		for k, v := range d.PlayerTags {
			copied.PlayerTags[k] = v
		}
	}
	if d.Ledger != nil {
		l := d.Ledger.clone()
		copied.Ledger = &l
	}
	if d.Double != nil {
		dbl := d.Double.clone()
		copied.Double = &dbl
	}
	return copied
}
