package results

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorama/internal/database"
)

func newStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := database.OpenMigrated(database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), db
}

func addUser(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, name, "x", "2024-01-01T00:00:00Z")
	require.NoError(t, err)
}

func TestInsert_Validates(t *testing.T) {
	s, _ := newStore(t)
	err := s.Insert(context.Background(), Result{GameID: "g", Difficulty: "easy", Moves: 0})
	assert.ErrorIs(t, err, ErrInvalidResult)
	err = s.Insert(context.Background(), Result{Difficulty: "easy", Moves: 4})
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestLeaderboard_OrderAndScope(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "alice")

	require.NoError(t, s.Insert(ctx, Result{GameID: "g1", UserID: "u1", Difficulty: "easy", Moves: 6, Elapsed: 30}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g2", AnonymousID: "a1", Difficulty: "easy", Moves: 5, Elapsed: 30}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g3", AnonymousID: "a1", Difficulty: "easy", Moves: 9, Elapsed: 20}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g4", UserID: "u1", Difficulty: "hard", Moves: 12, Elapsed: 60}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g5", UserID: "u1", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 10, Elapsed: 50}))

	rows, err := s.Leaderboard(ctx, "easy", "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 20, rows[0].Elapsed)
	assert.Equal(t, "guest", rows[1].Player)
	assert.Equal(t, 5, rows[1].Moves, "ties on time go to fewer moves")
	assert.Equal(t, "alice", rows[2].Player)

	rows, err = s.Leaderboard(ctx, "hard", "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1, "daily results stay off the free-play board")

	rows, err = s.Leaderboard(ctx, "hard", "2024-03-01", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 50, rows[0].Elapsed)

	rows, err = s.Leaderboard(ctx, "easy", "", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUserStatsAndClaim(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "bob")

	require.NoError(t, s.Insert(ctx, Result{GameID: "g1", AnonymousID: "anon", Difficulty: "easy", Moves: 7, Elapsed: 40}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g2", AnonymousID: "anon", Difficulty: "easy", Moves: 5, Elapsed: 45}))

	stats, err := s.UserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stats)

	n, err := s.ClaimAnonymous(ctx, "anon", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stats, err = s.UserStats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, Stats{Difficulty: "easy", Wins: 2, BestElapsed: 40, BestMoves: 5}, stats[0])

	n, err = s.ClaimAnonymous(ctx, "", "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlayedDaily(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "carol")

	played, err := s.PlayedDaily(ctx, "u1", "", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.Insert(ctx, Result{GameID: "g", UserID: "u1", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 8, Elapsed: 30}))
	played, err = s.PlayedDaily(ctx, "u1", "", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, played)

	played, err = s.PlayedDaily(ctx, "", "someone-else", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, played)
}

func TestInsert_OneDailyResultPerOwner(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "dave")

	daily := Result{GameID: "g1", UserID: "u1", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 8, Elapsed: 30}
	require.NoError(t, s.Insert(ctx, daily))
	daily.GameID = "g2"
	assert.ErrorIs(t, s.Insert(ctx, daily), ErrDuplicate)

	guest := Result{GameID: "g3", AnonymousID: "anon", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 9, Elapsed: 31}
	require.NoError(t, s.Insert(ctx, guest))
	guest.GameID = "g4"
	assert.ErrorIs(t, s.Insert(ctx, guest), ErrDuplicate)

	// Free play has no such limit.
	free := Result{GameID: "g5", UserID: "u1", Difficulty: "hard", Moves: 8, Elapsed: 30}
	require.NoError(t, s.Insert(ctx, free))
	free.GameID = "g6"
	require.NoError(t, s.Insert(ctx, free))

	rows, err := s.Leaderboard(ctx, "hard", "2024-03-01", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestClaimAnonymous_KeepsAccountDailyWin(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "erin")

	require.NoError(t, s.Insert(ctx, Result{GameID: "g1", UserID: "u1", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 8, Elapsed: 30}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g2", AnonymousID: "anon", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 6, Elapsed: 20}))
	require.NoError(t, s.Insert(ctx, Result{GameID: "g3", AnonymousID: "anon", Difficulty: "hard", DailyDate: "2024-03-02", Moves: 7, Elapsed: 25}))

	n, err := s.ClaimAnonymous(ctx, "anon", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the unclaimed date moves over")

	rows, err := s.Leaderboard(ctx, "hard", "2024-03-01", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "erin", rows[0].Player)
	assert.Equal(t, 30, rows[0].Elapsed, "the account's first win stands")

	rows, err = s.Leaderboard(ctx, "hard", "2024-03-02", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "erin", rows[0].Player)

	var left int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM results WHERE anonymous_id = 'anon'`).Scan(&left))
	assert.Zero(t, left)
}

func TestPlayedDaily_MatchesEitherOwner(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	addUser(t, db, "u1", "frank")

	require.NoError(t, s.Insert(ctx, Result{GameID: "g", AnonymousID: "anon", Difficulty: "hard", DailyDate: "2024-03-01", Moves: 8, Elapsed: 30}))

	played, err := s.PlayedDaily(ctx, "u1", "anon", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, played, "a signed-in player still carrying the guest cookie has played")

	played, err = s.PlayedDaily(ctx, "u1", "", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, played)
}
