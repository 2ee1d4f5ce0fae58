package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorama/internal/game"
)

// scriptedRNG returns values from a pre-set sequence.
type scriptedRNG struct {
	values []int
	idx    int
}

func (r *scriptedRNG) Intn(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

// identityRNG makes Fisher–Yates swap every element with itself.
type identityRNG struct{}

func (identityRNG) Intn(n int) int { return n - 1 }

func TestNewDeck_ShapePerDifficulty(t *testing.T) {
	for _, d := range game.Difficulties {
		t.Run(d.Name, func(t *testing.T) {
			cards, err := game.NewDeck(game.DefaultPalette(), d.Pairs, game.DefaultRNG())
			require.NoError(t, err)
			require.Len(t, cards, 2*d.Pairs)

			counts := map[game.Symbol]int{}
			for i, c := range cards {
				assert.Equal(t, i, c.Position)
				assert.Equal(t, game.FaceDown, c.State)
				counts[c.Symbol]++
			}
			assert.Len(t, counts, d.Pairs)
			for s, n := range counts {
				assert.Equal(t, 2, n, "symbol %s", s)
			}
		})
	}
}

func TestNewDeck_UsesFrontOfPalette(t *testing.T) {
	cards, err := game.NewDeck(game.DefaultPalette(), 4, identityRNG{})
	require.NoError(t, err)

	got := make([]game.Symbol, len(cards))
	for i, c := range cards {
		got[i] = c.Symbol
	}
	assert.Equal(t, []game.Symbol{"🎯", "🎮", "🎨", "🎭", "🎯", "🎮", "🎨", "🎭"}, got)
}

func TestNewDeck_Rejects(t *testing.T) {
	_, err := game.NewDeck([]game.Symbol{"a", "b"}, 3, identityRNG{})
	assert.ErrorIs(t, err, game.ErrPaletteTooSmall)

	_, err = game.NewDeck([]game.Symbol{"a", "a", "b"}, 2, identityRNG{})
	assert.ErrorIs(t, err, game.ErrPaletteTooSmall)

	_, err = game.NewDeck(game.DefaultPalette(), 0, identityRNG{})
	assert.ErrorIs(t, err, game.ErrInvalidDifficulty)
}

func TestShuffle_FisherYates(t *testing.T) {
	xs := []int{0, 1, 2, 3}
	// i=3 → j=0, i=2 → j=2, i=1 → j=0
	game.Shuffle(xs, &scriptedRNG{values: []int{0, 2, 0}})
	assert.Equal(t, []int{1, 3, 2, 0}, xs)
}

func TestSeededRNG_Reproducible(t *testing.T) {
	a, err := game.NewDeck(game.DefaultPalette(), 8, game.SeededRNG(42))
	require.NoError(t, err)
	b, err := game.NewDeck(game.DefaultPalette(), 8, game.SeededRNG(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 59: "0:59", 60: "1:00", 65: "1:05", 600: "10:00", -3: "0:00"}
	for in, want := range cases {
		assert.Equal(t, want, game.FormatClock(in), "seconds=%d", in)
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := game.ParseDifficulty("medium")
	require.NoError(t, err)
	assert.Equal(t, game.Difficulty{Name: "medium", Pairs: 6, Columns: 4}, d)

	d, err = game.ParseDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, game.Easy, d)

	_, err = game.ParseDifficulty("nightmare")
	assert.ErrorIs(t, err, game.ErrUnknownDifficulty)
}
