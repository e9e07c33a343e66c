package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo_Forward(t *testing.T) {
	assert.True(t, CanTransitionTo(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, CanTransitionTo(OrderStatusConfirmed, OrderStatusShipped))
	assert.True(t, CanTransitionTo(OrderStatusShipped, OrderStatusDelivered))
}

func TestCanTransitionTo_Backward(t *testing.T) {
	assert.False(t, CanTransitionTo(OrderStatusConfirmed, OrderStatusPending))
	assert.False(t, CanTransitionTo(OrderStatusShipped, OrderStatusProcessing))
}

func TestCanTransitionTo_TerminalAbsorbing(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		assert.False(t, CanTransitionTo(s, OrderStatusCancelled))
		assert.False(t, CanTransitionTo(s, OrderStatusConfirmed))
		assert.True(t, s.IsTerminal())
	}
}

func TestCanTransitionTo_CancelFromAnyNonTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped} {
		assert.True(t, CanTransitionTo(s, OrderStatusCancelled), "should be cancellable from %s", s)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, s)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)

	_, err = ParseOrderStatus("UNKNOWN")
	assert.Error(t, err)
}
