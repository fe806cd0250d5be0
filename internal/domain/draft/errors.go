package draft

import "errors"

var (
	ErrAlreadyQueued  = errors.New("player already queued")
	ErrNotQueued      = errors.New("player not queued")
	ErrQueueFull      = errors.New("queue is full")
	ErrTooFewPlayers  = errors.New("at least 4 players required")
	ErrOddPlayerCount = errors.New("player count must be even")
	ErrWrongPhase     = errors.New("action not allowed in current phase")
	ErrWrongTurn      = errors.New("not this captain's turn")
	ErrNotAvailable   = errors.New("player not available to pick")
	ErrNotCaptain     = errors.New("only captains may do this")
	ErrNotMiddleman   = errors.New("only the middleman may do this")
	ErrTagTooShort    = errors.New("tag must be longer than 3 characters")
	ErrTagTaken       = errors.New("tag already used by another player")
	ErrTagAlreadySet  = errors.New("tag already submitted")
	ErrNoActiveRound  = errors.New("no active payment round")
	ErrDoubleClosed   = errors.New("double or nothing is closed")
)
