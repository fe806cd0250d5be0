package draft

import (
	"fmt"

	"github.com/blurexe/draftcore/internal/domain/payment"
)

// Ledger tracks one payment round. Opening a new round replaces the whole
// value; a superseded ledger is history and is never written again.
type Ledger struct {
	NoteCode      string            `json:"note_code"`
	RequiredCents int64             `json:"required_cents"`
	Paid          map[string]int64  `json:"paid"`
	Tags          map[string]string `json:"tags"`
	Complete      bool              `json:"complete"`
}

// OpenPaymentRound installs a fresh ledger scoped to payers, keyed by a new
// note code. Every payer must have a registered tag.
func (d *Draft) OpenPaymentRound(noteCode string, payers []string, requiredCents int64) (*Ledger, error) {
	ledger := &Ledger{
		NoteCode:      noteCode,
		RequiredCents: requiredCents,
		Paid:          make(map[string]int64, len(payers)),
		Tags:          make(map[string]string, len(payers)),
	}
	for _, playerID := range payers {
		tag, ok := d.PlayerTags[playerID]
		if !ok {
			return nil, fmt.Errorf("payer %s has no registered tag", playerID)
		}
		ledger.Paid[playerID] = 0
		ledger.Tags[payment.Normalize(tag)] = playerID
	}

	d.Ledger = ledger
	return ledger, nil
}

// MatchesNote reports whether a normalized note token targets this round.
func (l *Ledger) MatchesNote(normalizedNote string) bool {
	return l != nil && normalizedNote != "" && payment.Normalize(l.NoteCode) == normalizedNote
}

// MatchSender resolves a normalized sender identity to a required payer.
func (l *Ledger) MatchSender(normalizedSender string) (string, bool) {
	playerID, ok := l.Tags[normalizedSender]
	return playerID, ok
}

// Credit adds to a payer's total and returns the new amount. Totals only
// ever grow.
func (l *Ledger) Credit(playerID string, amountCents int64) int64 {
	if amountCents < 0 {
		return l.Paid[playerID]
	}
	l.Paid[playerID] += amountCents
	return l.Paid[playerID]
}

// AllPaid reports whether every required payer has reached the threshold.
func (l *Ledger) AllPaid() bool {
	if len(l.Paid) == 0 {
		return false
	}
	for _, total := range l.Paid {
		if total < l.RequiredCents {
			return false
		}
	}
	return true
}

func (l Ledger) clone() Ledger {
	copied := l
	copied.Paid = make(map[string]int64, len(l.Paid))
	for k, v := range l.Paid {
		copied.Paid[k] = v
	}
	copied.Tags = make(map[string]string, len(l.Tags))
	for k, v := range l.Tags {
		copied.Tags[k] = v
	}
	return copied
}
