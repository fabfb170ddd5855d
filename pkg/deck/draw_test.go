package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarotDeckHas78Cards(t *testing.T) {
	d := Tarot()
	assert.Len(t, d, 78)

	// 编码唯一
	seen := make(map[string]bool, len(d))
	for _, e := range d {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true
	}
}

func TestRuneDeckHas24Runes(t *testing.T) {
	assert.Len(t, Runes(), 24)
}

func TestDrawReturnsDistinctElements(t *testing.T) {
	d := Tarot()

	for _, count := range []int{1, 3, 10, 78} {
		drawn, err := Draw(d, count, false, nil)
		require.NoError(t, err)
		require.Len(t, drawn, count)

		seen := make(map[string]bool, count)
		for _, dr := range drawn {
			assert.False(t, seen[dr.Element.Code], "repeated element %s", dr.Element.Code)
			seen[dr.Element.Code] = true
		}
	}
}

func TestDrawDoesNotMutateSourceDeck(t *testing.T) {
	d := Tarot()
	before := make([]string, len(d))
	for i, e := range d {
		before[i] = e.Code
	}

	_, err := Draw(d, 10, true, nil)
	require.NoError(t, err)
	_, err = Draw(d, 78, true, nil)
	require.NoError(t, err)

	for i, e := range d {
		assert.Equal(t, before[i], e.Code, "source deck order changed at index %d", i)
	}
}

func TestDrawInsufficientDeck(t *testing.T) {
	_, err := Draw(Runes(), 25, false, nil)
	assert.ErrorIs(t, err, ErrInsufficientDeck)
}

func TestDrawUprightWhenReversalDisabled(t *testing.T) {
	drawn, err := Draw(Tarot(), 78, false, nil)
	require.NoError(t, err)
	for _, dr := range drawn {
		assert.False(t, dr.Reversed)
	}
}

func TestDrawReversalRateConvergesToPoint3(t *testing.T) {
	const trials = 2000
	total, reversed := 0, 0
	for i := 0; i < trials; i++ {
		drawn, err := Draw(Runes(), 3, true, nil)
		require.NoError(t, err)
		for _, dr := range drawn {
			total++
			if dr.Reversed {
				reversed++
			}
		}
	}

	rate := float64(reversed) / float64(total)
	// 6000 次独立伯努利试验，允许约 ±0.03 的波动
	assert.InDelta(t, ReversalProbability, rate, 0.03)
}

func TestDrawAssignsPositionsByIndex(t *testing.T) {
	positions := []string{"Past", "Present", "Future"}
	drawn, err := Draw(Tarot(), 3, true, positions)
	require.NoError(t, err)

	for i, dr := range drawn {
		assert.Equal(t, positions[i], dr.Position)
	}
}

func TestDrawShortPositionListIsNotAnError(t *testing.T) {
	drawn, err := Draw(Tarot(), 3, false, []string{"Focus"})
	require.NoError(t, err)
	assert.Equal(t, "Focus", drawn[0].Position)
	assert.Empty(t, drawn[1].Position)
	assert.Empty(t, drawn[2].Position)
}

func TestGetSpread(t *testing.T) {
	s, ok := GetSpread("three_card")
	require.True(t, ok)
	assert.Equal(t, 3, s.Count)
	assert.Len(t, s.Positions, 3)

	_, ok = GetSpread("nonexistent")
	assert.False(t, ok)
}
