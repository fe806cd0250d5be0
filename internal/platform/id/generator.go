package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// NoteCodeGenerator creates short human-typeable payment note codes.
type NoteCodeGenerator interface {
	NewNoteCode() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

const noteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const noteCodeLength = 3

// NewNoteCode returns a short uppercase code payers include in the payment
// note so the reconciler can scope it to one round.
func (g *RandomGenerator) NewNoteCode() (string, error) {
	buf := make([]byte, noteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, noteCodeLength)
	for i, b := range buf {
		out[i] = noteCodeAlphabet[int(b)%len(noteCodeAlphabet)]
	}

	return string(out), nil
}
