package game

import (
	"fmt"
	"math/rand/v2"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// stdRNG delegates to the auto-seeded math/rand/v2 source.
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

// DefaultRNG returns the process-wide random source.
func DefaultRNG() RNG { return stdRNG{} }

type seededRNG struct{ r *rand.Rand }

func (s seededRNG) Intn(n int) int { return s.r.IntN(n) }

// SeededRNG returns a reproducible source; equal seeds deal equal boards.
func SeededRNG(seed uint64) RNG {
	return seededRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewDeck deals 2×pairs face-down cards using the first pairs symbols of the
// palette, shuffled with rng.
func NewDeck(palette []Symbol, pairs int, rng RNG) ([]Card, error) {
	if pairs < 1 {
		return nil, fmt.Errorf("%w: pairs=%d", ErrInvalidDifficulty, pairs)
	}
	if len(palette) < pairs || distinct(palette[:pairs]) < pairs {
		return nil, fmt.Errorf("%w: need %d", ErrPaletteTooSmall, pairs)
	}
	return deal(palette, pairs, rng), nil
}

// deal assumes the palette was validated.
func deal(palette []Symbol, pairs int, rng RNG) []Card {
	symbols := make([]Symbol, 0, 2*pairs)
	symbols = append(symbols, palette[:pairs]...)
	symbols = append(symbols, palette[:pairs]...)
	Shuffle(symbols, rng)

	cards := make([]Card, len(symbols))
	for i, s := range symbols {
		cards[i] = Card{Symbol: s, Position: i, State: FaceDown}
	}
	return cards
}

// Shuffle applies a Fisher–Yates permutation in place.
func Shuffle[T any](xs []T, rng RNG) {
	for i := len(xs) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func distinct(palette []Symbol) int {
	seen := make(map[Symbol]struct{}, len(palette))
	for _, s := range palette {
		seen[s] = struct{}{}
	}
	return len(seen)
}
