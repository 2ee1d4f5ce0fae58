package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorama/internal/feed"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/sched"
)

func newSession(t *testing.T, id string, clock sched.Scheduler) *Session {
	t.Helper()
	nop := zerolog.Nop()
	f := feed.New(nop)
	e, err := game.New(game.Options{ID: id, Scheduler: clock, Presenter: f, Logger: &nop})
	require.NoError(t, err)
	return &Session{ID: id, Engine: e, Feed: f}
}

func TestMemory_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t, "a", sched.NewManual())

	require.NoError(t, st.Save(ctx, s))
	got, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, st.Len())

	_, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Delete(ctx, "a"))
	assert.ErrorIs(t, st.Delete(ctx, "a"), ErrNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestMemory_ExpireClosesEngines(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &memory{sessions: make(map[string]*Session), now: func() time.Time { return now }}

	clock := sched.NewManual()
	idle := newSession(t, "idle", clock)
	busy := newSession(t, "busy", clock)
	require.NoError(t, st.Save(ctx, idle))
	require.NoError(t, st.Save(ctx, busy))
	idle.Engine.Start()
	sub := idle.Feed.Subscribe(16)
	require.Equal(t, 1, clock.Pending())

	now = now.Add(20 * time.Minute)
	_, err := st.Get(ctx, "busy")
	require.NoError(t, err)

	n := st.Expire(ctx, now.Add(-10*time.Minute))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 0, clock.Pending(), "expired engine stops its clock")
	_, ok := <-sub.Events()
	assert.False(t, ok, "expired feed disconnects subscribers")

	_, err = st.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunJanitor_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := NewMemoryStore()
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, st, time.Minute, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
