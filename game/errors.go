package game

import (
	"errors"
	"fmt"
)

// Protocol errors: rejected back to the offending sender, room state
// untouched.
var (
	ErrRoomNotFound     = errors.New("room-not-found")
	ErrRoomFull         = errors.New("room-full")
	ErrRoomStarted      = errors.New("room-already-started")
	ErrLobbyFull        = errors.New("lobby-at-capacity")
	ErrUnknownVariant   = errors.New("unknown-variant")
	ErrInvalidRules     = errors.New("invalid-room-configs")
	ErrWrongPhase       = errors.New("wrong-phase")
	ErrUnknownPlayer    = errors.New("unknown-player")
	ErrAlreadySubmitted = errors.New("already-submitted")
	ErrCardNotInHand    = errors.New("card-not-in-hand")
	ErrNoPendingChoice  = errors.New("no-pending-choice")
	ErrNotYourChoice    = errors.New("not-your-choice")
	ErrBadRowIndex      = errors.New("bad-row-index")
)

// Fault is an internal consistency violation: duplicate row heads, a claim
// against an empty row, a negative ledger. It is fatal to the room that
// raised it; the room freezes and is retired, never patched.
type Fault struct {
	msg string
}

func (f *Fault) Error() string { return "consistency fault: " + f.msg }

func faultf(format string, args ...any) error {
	return &Fault{msg: fmt.Sprintf(format, args...)}
}

// IsFault reports whether err carries a consistency fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
