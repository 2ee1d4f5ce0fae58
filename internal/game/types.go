// internal/game/types.go
//
// Core type definitions for the memory-matching engine.
// Defines:
//   - CardState / Phase: string enums shared with clients.
//   - Card, Difficulty, Summary and the State snapshot.

package game

import "fmt"

// Symbol is an opaque card face. Only equality matters.
type Symbol string

// CardState is the visual/logical state of a single card.
type CardState string

const (
	FaceDown CardState = "down"
	FaceUp   CardState = "up"
	Matched  CardState = "matched"
)

// Phase is the round lifecycle.
//   - not_started:          board dealt, clock stopped, flips ignored.
//   - running:              clock ticking, flips accepted.
//   - awaiting_resolution:  two cards up (or a reset pending), flips locked.
//   - won:                  all pairs matched, clock stopped.
type Phase string

const (
	PhaseNotStarted         Phase = "not_started"
	PhaseRunning            Phase = "running"
	PhaseAwaitingResolution Phase = "awaiting_resolution"
	PhaseWon                Phase = "won"
)

// InProgress reports whether a round is being played and a restart would
// throw progress away.
func (p Phase) InProgress() bool {
	return p == PhaseRunning || p == PhaseAwaitingResolution
}

// Card is one board slot. Position is its identity.
type Card struct {
	Symbol   Symbol    `json:"symbol"`
	Position int       `json:"position"`
	State    CardState `json:"state"`
}

// Difficulty selects how many pairs are dealt and the board width.
type Difficulty struct {
	Name    string `json:"name"`
	Pairs   int    `json:"pairs"`
	Columns int    `json:"columns"`
}

var (
	Easy   = Difficulty{Name: "easy", Pairs: 4, Columns: 4}
	Medium = Difficulty{Name: "medium", Pairs: 6, Columns: 4}
	Hard   = Difficulty{Name: "hard", Pairs: 8, Columns: 4}
)

// Difficulties lists the selectable levels in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// MaxPairs is the largest pair count among Difficulties.
const MaxPairs = 8

// ParseDifficulty resolves a level name. Empty selects easy.
func ParseDifficulty(name string) (Difficulty, error) {
	if name == "" {
		return Easy, nil
	}
	for _, d := range Difficulties {
		if d.Name == name {
			return d, nil
		}
	}
	return Difficulty{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, name)
}

// Summary is emitted once when a round is won.
type Summary struct {
	Difficulty string `json:"difficulty"`
	Elapsed    int    `json:"elapsedSeconds"`
	Clock      string `json:"time"`
	Moves      int    `json:"moves"`
}

// State is a point-in-time copy of a round.
type State struct {
	ID         string     `json:"gameId"`
	Round      int        `json:"round"`
	Phase      Phase      `json:"phase"`
	Difficulty Difficulty `json:"difficulty"`
	Cards      []Card     `json:"cards"`
	Selection  []int      `json:"selection"`
	Matched    int        `json:"matchedPairs"`
	Moves      int        `json:"moves"`
	Elapsed    int        `json:"elapsedSeconds"`
	Clock      string     `json:"clock"`
}
