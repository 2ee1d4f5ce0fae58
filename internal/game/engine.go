// internal/game/engine.go
//
// Core game engine for a single memory-matching session.
// Responsibilities:
//   - Deal shuffled boards of 2×pairs cards for the active difficulty.
//   - Accept flips, lock the board while a pair is resolved, score matches.
//   - Drive the round lifecycle: not_started → running ⇄ awaiting_resolution → won.
//   - Run the one-second clock while a round is in progress.
//
// Notes:
//   - Timing comes from an injected sched.Scheduler; presentation goes out
//     through an injected Presenter.
//   - Every deferred callback is stamped with the round generation. Restart
//     bumps the generation, so callbacks from an older round are dropped.
//   - Illegal transitions (double start, locked flips, flipping a face-up card)
//     are silent no-ops.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/sched"
)

const (
	ResolveDelay = 1000 * time.Millisecond // two cards up → compare
	UnflipDelay  = 500 * time.Millisecond  // mismatch → turn both back down
	FinishDelay  = 500 * time.Millisecond  // last match → win
	TickInterval = time.Second
)

// Options configures a new Engine. Scheduler is required; everything else
// has a default.
type Options struct {
	ID         string
	Difficulty Difficulty
	Palette    []Symbol
	RNG        RNG
	Scheduler  sched.Scheduler
	Presenter  Presenter
	Logger     *zerolog.Logger
}

// Engine owns one session's round state.
type Engine struct {
	mu      sync.Mutex
	id      string
	diff    Difficulty
	palette []Symbol
	rng     RNG
	sched   sched.Scheduler
	pres    Presenter
	log     zerolog.Logger

	round     int
	cards     []Card
	selection []int
	matched   int
	moves     int
	elapsed   int
	phase     Phase

	gen     uint64                   // bumped whenever pending callbacks must die
	tick    sched.Token              // periodic clock, 0 when stopped
	pending map[sched.Token]struct{} // outstanding After callbacks
}

// New validates opts and deals the first (not yet started) round.
func New(opts Options) (*Engine, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("game: scheduler is required")
	}
	if opts.Difficulty == (Difficulty{}) {
		opts.Difficulty = Easy
	}
	if opts.Palette == nil {
		opts.Palette = DefaultPalette()
	}
	if opts.RNG == nil {
		opts.RNG = DefaultRNG()
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if err := validate(opts.Difficulty, opts.Palette); err != nil {
		return nil, err
	}

	e := &Engine{
		id:      opts.ID,
		diff:    opts.Difficulty,
		palette: append([]Symbol(nil), opts.Palette...),
		rng:     opts.RNG,
		sched:   opts.Scheduler,
		pres:    opts.Presenter,
		pending: make(map[sched.Token]struct{}),
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	} else {
		e.log = log.With().Str("game", opts.ID).Logger()
	}

	e.mu.Lock()
	e.initRound()
	e.mu.Unlock()
	return e, nil
}

// ID returns the session identifier the engine was built with.
func (e *Engine) ID() string { return e.id }

// Start begins timing a fresh round. It is legal from not_started, and from
// won where it deals a new board first.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.phase {
	case PhaseNotStarted:
	case PhaseWon:
		e.pres.HideWinDialog()
	default:
		e.log.Debug().Str("phase", string(e.phase)).Msg("start ignored")
		return
	}

	e.invalidate()
	e.initRound()
	e.phase = PhaseRunning

	gen := e.gen
	e.tick = e.sched.Every(TickInterval, func() { e.onTick(gen) })
	e.log.Info().Int("round", e.round).Str("difficulty", e.diff.Name).Msg("round started")
}

// Restart abandons the current round from any phase and deals a new board in
// not_started. Start must be called again to begin timing.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restart()
}

// ChangeDifficulty swaps the level and restarts. Asking the player before
// discarding a round in progress is the caller's job.
func (e *Engine) ChangeDifficulty(d Difficulty) error {
	if err := validate(d, e.palette); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diff = d
	e.restart()
	return nil
}

// Close stops the clock and drops every pending callback.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidate()
}

// Flip turns card index face up. Ignored unless the round is running, fewer
// than two cards are selected and the card is face down.
func (e *Engine) Flip(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseRunning || len(e.selection) == 2 {
		return
	}
	if index < 0 || index >= len(e.cards) || e.cards[index].State != FaceDown {
		return
	}

	e.cards[index].State = FaceUp
	e.selection = append(e.selection, index)
	e.pres.SetCardVisual(index, FaceUp)

	if len(e.selection) == 2 {
		e.moves++
		e.pres.SetStats(e.moves, e.matched)
		e.phase = PhaseAwaitingResolution
		e.later(ResolveDelay, e.resolve)
	}
}

// Snapshot returns a copy of the round.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		ID:         e.id,
		Round:      e.round,
		Phase:      e.phase,
		Difficulty: e.diff,
		Cards:      append([]Card(nil), e.cards...),
		Selection:  append([]int{}, e.selection...),
		Matched:    e.matched,
		Moves:      e.moves,
		Elapsed:    e.elapsed,
		Clock:      FormatClock(e.elapsed),
	}
}

// Phase reports the current lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// ----------------------------- transitions ---------------------------------
// Everything below runs with e.mu held.

func (e *Engine) initRound() {
	e.round++
	e.cards = deal(e.palette, e.diff.Pairs, e.rng)
	e.selection = e.selection[:0]
	e.matched = 0
	e.moves = 0
	e.elapsed = 0
	e.phase = PhaseNotStarted

	e.pres.RenderBoard(append([]Card(nil), e.cards...), e.diff.Columns)
	e.pres.SetStats(0, 0)
	e.pres.SetClock(FormatClock(0))
}

func (e *Engine) restart() {
	e.invalidate()
	e.pres.HideWinDialog()
	e.initRound()
	e.log.Info().Int("round", e.round).Str("difficulty", e.diff.Name).Msg("round reset")
}

// resolve compares the selected pair once the flip delay has passed.
func (e *Engine) resolve() {
	if e.phase != PhaseAwaitingResolution || len(e.selection) != 2 {
		return
	}
	a, b := e.selection[0], e.selection[1]
	e.selection = e.selection[:0]

	if e.cards[a].Symbol != e.cards[b].Symbol {
		// Stay locked until both cards are visibly face down again.
		e.later(UnflipDelay, func() { e.unflip(a, b) })
		return
	}

	e.cards[a].State = Matched
	e.cards[b].State = Matched
	e.matched++
	e.pres.SetCardVisual(a, Matched)
	e.pres.SetCardVisual(b, Matched)
	e.pres.SetStats(e.moves, e.matched)

	if e.matched == e.diff.Pairs {
		e.later(FinishDelay, e.finish)
		return
	}
	e.phase = PhaseRunning
}

func (e *Engine) unflip(a, b int) {
	e.cards[a].State = FaceDown
	e.cards[b].State = FaceDown
	e.pres.SetCardVisual(a, FaceDown)
	e.pres.SetCardVisual(b, FaceDown)
	e.phase = PhaseRunning
}

func (e *Engine) finish() {
	if e.matched != e.diff.Pairs || e.phase == PhaseWon {
		return
	}
	e.stopClock()
	e.phase = PhaseWon

	s := Summary{
		Difficulty: e.diff.Name,
		Elapsed:    e.elapsed,
		Clock:      FormatClock(e.elapsed),
		Moves:      e.moves,
	}
	e.pres.ShowWinDialog(s)
	e.log.Info().Int("round", e.round).Int("moves", s.Moves).Int("elapsed", s.Elapsed).Msg("round won")
}

// later schedules fn for the current generation only.
func (e *Engine) later(d time.Duration, fn func()) {
	gen := e.gen
	var tok sched.Token
	tok = e.sched.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.pending, tok)
		if gen != e.gen {
			e.log.Debug().Uint64("gen", gen).Msg("stale callback dropped")
			return
		}
		fn()
	})
	e.pending[tok] = struct{}{}
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || !e.phase.InProgress() {
		return
	}
	e.elapsed++
	e.pres.SetClock(FormatClock(e.elapsed))
}

// invalidate kills the clock and every pending callback.
func (e *Engine) invalidate() {
	e.gen++
	e.stopClock()
	for tok := range e.pending {
		e.sched.Cancel(tok)
		delete(e.pending, tok)
	}
}

func (e *Engine) stopClock() {
	if e.tick != 0 {
		e.sched.Cancel(e.tick)
		e.tick = 0
	}
}

func validate(d Difficulty, palette []Symbol) error {
	if d.Pairs < 1 || d.Columns < 1 {
		return fmt.Errorf("%w: %+v", ErrInvalidDifficulty, d)
	}
	if len(palette) < d.Pairs || distinct(palette[:d.Pairs]) < d.Pairs {
		return fmt.Errorf("%w: %q needs %d", ErrPaletteTooSmall, d.Name, d.Pairs)
	}
	return nil
}
