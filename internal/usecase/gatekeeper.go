package usecase

import "context"

// Gatekeeper is the role-check hook the core consults before letting a
// user queue up or hold the pot. Authentication itself lives outside.
type Gatekeeper interface {
	CanJoin(ctx context.Context, userID string) error
	CanHoldPot(ctx context.Context, userID string) error
}

type allowAllGatekeeper struct{}

func (allowAllGatekeeper) CanJoin(context.Context, string) error    { return nil }
func (allowAllGatekeeper) CanHoldPot(context.Context, string) error { return nil }

func NewAllowAllGatekeeper() Gatekeeper {
	return allowAllGatekeeper{}
}
