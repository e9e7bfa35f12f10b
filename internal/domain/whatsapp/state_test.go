package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		allowed bool
	}{
		{"outgoing to sent", StateOutgoing, StateSent, true},
		{"outgoing to error", StateOutgoing, StateError, true},
		{"outgoing to canceled", StateOutgoing, StateCanceled, true},
		{"sent back to outgoing", StateSent, StateOutgoing, true},
		{"error back to outgoing", StateError, StateOutgoing, true},
		{"canceled back to outgoing", StateCanceled, StateOutgoing, true},
		{"outgoing to outgoing", StateOutgoing, StateOutgoing, false},
		{"sent to canceled", StateSent, StateCanceled, false},
		{"error to sent", StateError, StateSent, false},
		{"canceled to error", StateCanceled, StateError, false},
		{"unknown source", State("bogus"), StateSent, false},
		{"unknown target", StateOutgoing, State("bogus"), false},
		{"empty state", State(""), StateOutgoing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateOutgoing.Terminal())
	assert.True(t, StateSent.Terminal())
	assert.True(t, StateError.Terminal())
	assert.True(t, StateCanceled.Terminal())
	assert.False(t, State("bogus").Valid())
}
