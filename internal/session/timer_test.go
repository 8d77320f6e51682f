package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdown(t *testing.T) {
	t.Run("fires after the delay", func(t *testing.T) {
		var fired atomic.Int32
		NewCountdown(10*time.Millisecond, func() { fired.Add(1) })

		assert.Eventually(t, func() bool { return fired.Load() == 1 },
			time.Second, 5*time.Millisecond)
	})

	t.Run("cancel prevents the action", func(t *testing.T) {
		var fired atomic.Int32
		c := NewCountdown(20*time.Millisecond, func() { fired.Add(1) })

		assert.True(t, c.Cancel())
		time.Sleep(60 * time.Millisecond)
		assert.Zero(t, fired.Load())
		assert.False(t, c.Fired())
	})

	t.Run("cancel after firing reports false", func(t *testing.T) {
		var fired atomic.Int32
		c := NewCountdown(5*time.Millisecond, func() { fired.Add(1) })

		assert.Eventually(t, func() bool { return c.Fired() },
			time.Second, 5*time.Millisecond)
		assert.False(t, c.Cancel())
		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("double cancel reports false", func(t *testing.T) {
		c := NewCountdown(time.Minute, func() {})
		assert.True(t, c.Cancel())
		assert.False(t, c.Cancel())
	})
}
