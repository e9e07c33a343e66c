package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[int]("test", 3, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (int, error) { return 42, nil })
	assert.True(t, Refused(err))
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := New[int]("test", 2, time.Minute)
	boom := errors.New("boom")

	// A success in between resets the consecutive-failure count.
	_, err := cb.Execute(func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	_, err = cb.Execute(func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = cb.Execute(func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	got, err := cb.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRefused(t *testing.T) {
	assert.False(t, Refused(errors.New("boom")))
	assert.False(t, Refused(nil))
}
