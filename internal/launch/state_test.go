package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateRequested, StateVersionGuard, true},
		{StateVersionGuard, StateCheckout, true},
		{StateCheckout, StateExecuting, true},
		{StateExecuting, StateCapturing, true},
		{StateCapturing, StateStored, true},

		{StateRequested, StateExecuting, false},
		{StateVersionGuard, StateRequested, false},
		{StateCheckout, StateStored, false},
		{StateStored, StateVersionGuard, false},

		// Any non-terminal state may abort; terminal states may not.
		{StateRequested, StateAborted, true},
		{StateExecuting, StateAborted, true},
		{StateCapturing, StateAborted, true},
		{StateStored, StateAborted, false},
		{StateAborted, StateAborted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, allowedTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StateStored.IsTerminal())
	assert.True(t, StateAborted.IsTerminal())
	assert.False(t, StateRequested.IsTerminal())
	assert.False(t, StateExecuting.IsTerminal())
}
