// internal/store/memory.go
//
// In-memory session store.
// A session bundles a running game engine with its presentation feed and owner.
//
// Characteristics:
//   - Sessions keyed by ID in a map, guarded by an RWMutex.
//   - Get refreshes the session's last-seen time; Expire evicts idle sessions
//     and closes their engines and feeds so no timers outlive them.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/memorama/internal/feed"
	"github.com/robalobadob/memorama/internal/game"
)

var ErrNotFound = errors.New("session not found")

// Session is one player's game.
type Session struct {
	ID          string
	Engine      *game.Engine
	Feed        *feed.Feed
	UserID      string // empty for guests
	AnonymousID string
	DailyDate   string // set for daily boards
	CreatedAt   time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch marks the session as active at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = t
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close releases the engine's timers and disconnects subscribers.
func (s *Session) close() {
	if s.Engine != nil {
		s.Engine.Close()
	}
	if s.Feed != nil {
		s.Feed.Close()
	}
}

// Store defines the session registry used by the HTTP layer.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error
	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete closes and removes a session.
	Delete(ctx context.Context, id string) error
	// Expire closes and removes sessions idle since before cutoff.
	Expire(ctx context.Context, cutoff time.Time) int
	// Len reports the number of live sessions.
	Len() int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session), now: time.Now}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	s.Touch(m.now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID]; ok && old != s {
		old.close()
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch(m.now())
	return s, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.close()
	return nil
}

func (m *memory) Expire(ctx context.Context, cutoff time.Time) int {
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
