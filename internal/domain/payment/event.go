package payment

import (
	"strings"
	"time"
)

// ParsedPaymentEvent is one payment notification after the external
// mail-parser service has stripped transport concerns. The core only
// normalizes and matches; it never sees MIME or IMAP.
type ParsedPaymentEvent struct {
	ID             string    `json:"id"`
	RawSenderLabel string    `json:"raw_sender_label"`
	NoteToken      string    `json:"note_token"`
	AmountCents    int64     `json:"amount_cents"`
	Timestamp      time.Time `json:"timestamp"`
}

// Normalize lowercases and strips everything outside [a-z0-9] so that
// sender labels and note tokens compare by content, not formatting.
func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}
