package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUCT(t *testing.T) {
	t.Run("computing UCT value", func(t *testing.T) {
		got := uct(0.5, 10, 100)

		expected := 0.5 + math.Sqrt(2.0*math.Log(100)/10.0)
		require.InDelta(t, expected, got, 0.0001,
			"Should compute reward + sqrt(2*ln(N)/n)")
	})

	t.Run("panics with zero child visits", func(t *testing.T) {
		require.Panics(t, func() {
			uct(0.5, 0, 100)
		}, "Should panic when n is 0")
	})

	t.Run("panics with zero parent visits", func(t *testing.T) {
		require.Panics(t, func() {
			uct(0.5, 1, 0)
		}, "Should panic when N is 0")
	})

	t.Run("exploration term increases with parent visits", func(t *testing.T) {
		require.Greater(t, uct(0.5, 10, 1000), uct(0.5, 10, 100),
			"More parent visits should increase exploration term")
	})

	t.Run("exploration term decreases with child visits", func(t *testing.T) {
		require.Greater(t, uct(0.5, 10, 100), uct(0.5, 20, 100),
			"More child visits should decrease exploration term")
	})

	t.Run("single parent visit has no exploration bonus", func(t *testing.T) {
		require.Equal(t, 0.25, uct(0.25, 1, 1))
	})
}
