package tickets

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	code, err := NewCode()
	require.NoError(t, err)

	assert.Len(t, code, len("TCK-")+32)
	assert.Regexp(t, `^TCK-[0-9A-F]{32}$`, code)
}

func TestNewCode_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := NewCode()
		require.NoError(t, err)

		_, dup := seen[code]
		require.False(t, dup, "duplicate code generated: %s", code)
		seen[code] = struct{}{}
	}
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StatePaid.Terminal())
	assert.True(t, StateUsed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestTicket_Summary(t *testing.T) {
	t.Run("paid ticket is redeemable", func(t *testing.T) {
		ticket := &Ticket{Code: "TCK-AA", State: StatePaid, Quantity: 2}

		summary := ticket.Summary()

		assert.True(t, summary.Redeemable)
		assert.Equal(t, StatePaid, summary.State)
		assert.Equal(t, 2, summary.Quantity)
		assert.Nil(t, summary.UsedAt)
	})

	t.Run("used ticket is not redeemable", func(t *testing.T) {
		usedAt := time.Now()
		ticket := &Ticket{Code: "TCK-AA", State: StateUsed, UsedAt: &usedAt}

		summary := ticket.Summary()

		assert.False(t, summary.Redeemable)
		require.NotNil(t, summary.UsedAt)
		assert.Equal(t, usedAt, *summary.UsedAt)
	})

	t.Run("pending ticket is not redeemable", func(t *testing.T) {
		ticket := &Ticket{Code: "TCK-AA", State: StatePending}
		assert.False(t, ticket.Summary().Redeemable)
	})
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{Code: "TCK-AA", Current: StateUsed, To: StateUsed}

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "TCK-AA")
	assert.Contains(t, err.Error(), "used")

	var target *InvalidTransitionError
	require.True(t, errors.As(error(err), &target))
	assert.Equal(t, StateUsed, target.Current)
}
