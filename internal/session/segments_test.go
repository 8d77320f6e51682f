package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/pkg/ticks"
)

func TestSegmentEngine(t *testing.T) {
	windows := []catalog.SegmentWindow{
		{Type: catalog.SegmentIntro, StartTicks: ticks.FromSeconds(10), EndTicks: ticks.FromSeconds(40)},
		{Type: catalog.SegmentCredits, StartTicks: ticks.FromSeconds(1300), EndTicks: ticks.FromSeconds(1320)},
	}
	end := ticks.FromSeconds(1320)

	t.Run("tracks the active window", func(t *testing.T) {
		e := NewSegmentEngine(windows, end)

		e.Evaluate(ticks.FromSeconds(5))
		assert.Nil(t, e.Active())

		e.Evaluate(ticks.FromSeconds(15))
		w := e.Active()
		require.NotNil(t, w)
		assert.Equal(t, catalog.SegmentIntro, w.Type)

		// End boundary is exclusive.
		e.Evaluate(ticks.FromSeconds(40))
		assert.Nil(t, e.Active())
	})

	t.Run("prompts once per window instance", func(t *testing.T) {
		e := NewSegmentEngine(windows, end)
		var prompts []catalog.SegmentType
		e.OnPrompt(func(w catalog.SegmentWindow) { prompts = append(prompts, w.Type) })

		e.Evaluate(ticks.FromSeconds(12))
		e.Evaluate(ticks.FromSeconds(20))
		e.Evaluate(ticks.FromSeconds(35))
		assert.Equal(t, []catalog.SegmentType{catalog.SegmentIntro}, prompts)

		// Leaving and re-entering the same window does not re-prompt.
		e.Evaluate(ticks.FromSeconds(50))
		e.Evaluate(ticks.FromSeconds(12))
		assert.Len(t, prompts, 1)

		e.Evaluate(ticks.FromSeconds(1305))
		assert.Equal(t, []catalog.SegmentType{catalog.SegmentIntro, catalog.SegmentCredits}, prompts)
	})

	t.Run("reset clears prompt memory", func(t *testing.T) {
		e := NewSegmentEngine(windows, end)
		var prompts int
		e.OnPrompt(func(catalog.SegmentWindow) { prompts++ })

		e.Evaluate(ticks.FromSeconds(12))
		e.Reset()
		e.Evaluate(ticks.FromSeconds(12))
		assert.Equal(t, 2, prompts)
	})

	t.Run("trailing credits detection", func(t *testing.T) {
		e := NewSegmentEngine(windows, end)

		e.Evaluate(ticks.FromSeconds(1305))
		assert.True(t, e.InTrailingCredits(5))

		// An intro window is never a trailing-credits trigger.
		e.Evaluate(ticks.FromSeconds(15))
		assert.False(t, e.InTrailingCredits(5))

		// Credits that end well before the item do not trigger.
		mid := []catalog.SegmentWindow{
			{Type: catalog.SegmentCredits, StartTicks: ticks.FromSeconds(600), EndTicks: ticks.FromSeconds(660)},
		}
		e2 := NewSegmentEngine(mid, end)
		e2.Evaluate(ticks.FromSeconds(610))
		assert.False(t, e2.InTrailingCredits(5))
	})

	t.Run("no windows", func(t *testing.T) {
		e := NewSegmentEngine(nil, end)
		assert.False(t, e.HasWindows())
		e.Evaluate(ticks.FromSeconds(100))
		assert.Nil(t, e.Active())
		assert.False(t, e.InTrailingCredits(5))
	})
}
