// internal/feed/feed.go
//
// Presentation feed for one game session.
// Responsibilities:
//   - Implement game.Presenter by turning each render request into a JSON event.
//   - Fan events out to subscribers (WebSocket connections) without blocking the engine.
//   - Reveal a card's symbol only while it is face up or matched.
//   - Forward the win summary to an optional hook (result persistence).
//
// Notes:
//   - Presenter methods run under the engine lock; nothing here calls back into it.
//   - A subscriber whose buffer is full is dropped and its channel closed.

package feed

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/robalobadob/memorama/internal/game"
)

// Event types sent to clients.
const (
	EventBoard   = "board"
	EventCard    = "card"
	EventStats   = "stats"
	EventClock   = "clock"
	EventWin     = "win"
	EventHideWin = "hide_win"
	EventState   = "state"
)

// Event is the envelope written to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// CardView is a card as clients may see it.
type CardView struct {
	Index  int            `json:"index"`
	State  game.CardState `json:"state"`
	Symbol game.Symbol    `json:"symbol,omitempty"`
}

type boardData struct {
	Columns    int        `json:"columns"`
	TotalPairs int        `json:"totalPairs"`
	Cards      []CardView `json:"cards"`
}

type statsData struct {
	Moves        int `json:"moves"`
	MatchedPairs int `json:"matchedPairs"`
	TotalPairs   int `json:"totalPairs"`
}

type clockData struct {
	Text string `json:"text"`
}

// View hides the symbol of face-down cards.
func View(c game.Card) CardView {
	v := CardView{Index: c.Position, State: c.State}
	if c.State != game.FaceDown {
		v.Symbol = c.Symbol
	}
	return v
}

// Views maps View over a board.
func Views(cards []game.Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = View(c)
	}
	return out
}

// Subscription receives encoded events until it is closed.
type Subscription struct {
	ch chan []byte
}

// Events yields JSON-encoded Event messages.
func (s *Subscription) Events() <-chan []byte { return s.ch }

// Feed is a game.Presenter that broadcasts.
type Feed struct {
	mu      sync.Mutex
	symbols []game.Symbol
	subs    map[*Subscription]struct{}
	onWin   func(game.Summary)
	closed  bool
	log     zerolog.Logger
}

// New returns an empty feed.
func New(log zerolog.Logger) *Feed {
	return &Feed{subs: make(map[*Subscription]struct{}), log: log}
}

// OnWin registers fn to run when a round is won.
func (f *Feed) OnWin(fn func(game.Summary)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onWin = fn
}

// Subscribe registers a listener with buffer slots.
func (f *Feed) Subscribe(buffer int) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &Subscription{ch: make(chan []byte, buffer)}
	if f.closed {
		close(s.ch)
		return s
	}
	f.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (f *Feed) Unsubscribe(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.ch)
	}
}

// Subscribers reports the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close drops every subscriber; later events are discarded.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		delete(f.subs, s)
		close(s.ch)
	}
	f.closed = true
}

// Encode marshals an event the way subscribers receive it.
func Encode(ev Event) ([]byte, error) { return json.Marshal(ev) }

// ------------------------------ Presenter ----------------------------------

func (f *Feed) RenderBoard(cards []game.Card, columns int) {
	f.mu.Lock()
	f.symbols = make([]game.Symbol, len(cards))
	for i, c := range cards {
		f.symbols[i] = c.Symbol
	}
	f.mu.Unlock()
	f.publish(Event{Type: EventBoard, Data: boardData{Columns: columns, TotalPairs: len(cards) / 2, Cards: Views(cards)}})
}

func (f *Feed) SetCardVisual(index int, state game.CardState) {
	v := CardView{Index: index, State: state}
	f.mu.Lock()
	if state != game.FaceDown && index >= 0 && index < len(f.symbols) {
		v.Symbol = f.symbols[index]
	}
	f.mu.Unlock()
	f.publish(Event{Type: EventCard, Data: v})
}

func (f *Feed) SetStats(moves, matchedPairs int) {
	f.mu.Lock()
	total := len(f.symbols) / 2
	f.mu.Unlock()
	f.publish(Event{Type: EventStats, Data: statsData{Moves: moves, MatchedPairs: matchedPairs, TotalPairs: total}})
}

func (f *Feed) SetClock(text string) {
	f.publish(Event{Type: EventClock, Data: clockData{Text: text}})
}

func (f *Feed) ShowWinDialog(s game.Summary) {
	f.publish(Event{Type: EventWin, Data: s})
	f.mu.Lock()
	fn := f.onWin
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (f *Feed) HideWinDialog() {
	f.publish(Event{Type: EventHideWin})
}

// Publish sends an arbitrary event, e.g. a full state to one late joiner.
func (f *Feed) Publish(ev Event) { f.publish(ev) }

func (f *Feed) publish(ev Event) {
	msg, err := Encode(ev)
	if err != nil {
		f.log.Error().Err(err).Str("event", ev.Type).Msg("encode event")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.ch <- msg:
		default:
			// slow consumer
			delete(f.subs, s)
			close(s.ch)
			f.log.Warn().Str("event", ev.Type).Msg("dropped slow subscriber")
		}
	}
}
