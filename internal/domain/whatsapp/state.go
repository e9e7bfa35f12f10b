package whatsapp

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of an outgoing message.
type State string

const (
	StateOutgoing State = "outgoing"
	StateSent     State = "sent"
	StateError    State = "error"
	StateCanceled State = "canceled"
)

var ErrInvalidTransition = errors.New("invalid whatsapp message state transition")

func (s State) Valid() bool {
	switch s {
	case StateOutgoing, StateSent, StateError, StateCanceled:
		return true
	}
	return false
}

// Terminal reports whether s ends the message lifecycle.
func (s State) Terminal() bool {
	return s == StateSent || s == StateError || s == StateCanceled
}

// CheckTransition returns nil when a message may move from one state to
// the other. A queued message may end in any terminal state; a terminal
// message may only be put back in the queue.
func CheckTransition(from, to State) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: unknown state %q -> %q", ErrInvalidTransition, from, to)
	}
	switch {
	case from == StateOutgoing && to.Terminal():
		return nil
	case from.Terminal() && to == StateOutgoing:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
