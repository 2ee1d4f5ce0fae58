package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorama/internal/game"
)

func TestDateKey_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, 3, 2, 5, 0, 0, 0, loc) // 2024-03-01 19:00 UTC
	assert.Equal(t, "2024-03-01", DateKey(ts))
}

func TestSeed_StablePerDay(t *testing.T) {
	morning := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	tomorrow := morning.Add(24 * time.Hour)

	assert.Equal(t, Seed(morning, "s"), Seed(evening, "s"))
	assert.NotEqual(t, Seed(morning, "s"), Seed(tomorrow, "s"))
	assert.NotEqual(t, Seed(morning, "s"), Seed(morning, "other"))
}

func TestRNG_SameBoardForEveryone(t *testing.T) {
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := game.NewDeck(game.DefaultPalette(), Difficulty.Pairs, RNG(day, "salt"))
	require.NoError(t, err)
	b, err := game.NewDeck(game.DefaultPalette(), Difficulty.Pairs, RNG(day.Add(time.Hour), "salt"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRNG_RewindsBetweenDeals(t *testing.T) {
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rng := RNG(day, "salt")
	first, err := game.NewDeck(game.DefaultPalette(), Difficulty.Pairs, rng)
	require.NoError(t, err)
	second, err := game.NewDeck(game.DefaultPalette(), Difficulty.Pairs, rng)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
