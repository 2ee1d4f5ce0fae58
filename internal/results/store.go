// internal/results/store.go
//
// SQLite persistence for won rounds.
// Responsibilities:
//   - Record a result when a round is won (owned by a user or an anonymous id).
//   - Leaderboards per difficulty, for free play or a single daily board.
//   - Per-user aggregates for the profile page.
//   - Attaching a guest's results to an account after signup/login.

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidResult = errors.New("invalid result")
	// ErrDuplicate means the owner already holds a result for that daily board.
	ErrDuplicate = errors.New("result already recorded")
)

// DefaultLimit caps leaderboard queries that do not ask for a size.
const DefaultLimit = 20

// Result is one won round.
type Result struct {
	ID          string
	GameID      string
	UserID      string // empty for guests
	AnonymousID string // empty for signed-in players
	Difficulty  string
	DailyDate   string // "YYYY-MM-DD" for daily boards, empty for free play
	Moves       int
	Elapsed     int // seconds
}

// Row is a leaderboard entry.
type Row struct {
	Player    string    `json:"player"`
	Moves     int       `json:"moves"`
	Elapsed   int       `json:"elapsedSeconds"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats aggregates one user's wins at a difficulty.
type Stats struct {
	Difficulty  string `json:"difficulty"`
	Wins        int    `json:"wins"`
	BestElapsed int    `json:"bestElapsedSeconds"`
	BestMoves   int    `json:"bestMoves"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records r, assigning an ID when empty. A second daily result for the
// same owner and date is dropped and reported as ErrDuplicate.
func (s *Store) Insert(ctx context.Context, r Result) error {
	if r.GameID == "" || r.Difficulty == "" || r.Moves < 1 || r.Elapsed < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidResult, r)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO results
            (id, game_id, user_id, anonymous_id, difficulty, daily_date, moves, elapsed_seconds, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.GameID, nullable(r.UserID), nullable(r.AnonymousID),
		r.Difficulty, r.DailyDate, r.Moves, r.Elapsed,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicate
	}
	return nil
}

/**
 * Leaderboard fetches the best results for a difficulty.
 *
 * - dailyDate selects a single daily board; empty means free play.
 * - Ordered by elapsed time ASC, then moves ASC, then created_at ASC.
 * - Default limit is 20 if not specified.
 */
func (s *Store) Leaderboard(ctx context.Context, difficulty, dailyDate string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT COALESCE(u.username, 'guest'), r.moves, r.elapsed_seconds, r.created_at
        FROM results r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.difficulty = ? AND r.daily_date = ?
        ORDER BY r.elapsed_seconds ASC, r.moves ASC, r.created_at ASC
        LIMIT ?`, difficulty, dailyDate, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var (
			r       Row
			created string
		)
		if err := rows.Scan(&r.Player, &r.Moves, &r.Elapsed, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UserStats returns per-difficulty aggregates for userID.
func (s *Store) UserStats(ctx context.Context, userID string) ([]Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT difficulty, COUNT(1), MIN(elapsed_seconds), MIN(moves)
        FROM results
        WHERE user_id = ?
        GROUP BY difficulty
        ORDER BY difficulty`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Stats{}
	for rows.Next() {
		var st Stats
		if err := rows.Scan(&st.Difficulty, &st.Wins, &st.BestElapsed, &st.BestMoves); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// PlayedDaily reports whether the owner already won the board for date.
func (s *Store) PlayedDaily(ctx context.Context, userID, anonID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM results
        WHERE daily_date = ? AND ((user_id IS NOT NULL AND user_id = ?) OR (anonymous_id IS NOT NULL AND anonymous_id = ?))`,
		date, userID, anonID,
	).Scan(&cnt)
	return cnt > 0, err
}

// ClaimAnonymous moves a guest's results onto a user account. Daily results
// for a date the user already holds stay behind and are removed, so the
// account keeps its first win.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, userID string) (int64, error) {
	if anonID == "" || userID == "" {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE results SET user_id = ?, anonymous_id = NULL WHERE anonymous_id = ?`, userID, anonID)
	if err != nil {
		return 0, fmt.Errorf("claim results: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM results WHERE anonymous_id = ? AND daily_date != ''`, anonID); err != nil {
		return 0, fmt.Errorf("drop duplicate daily results: %w", err)
	}
	return moved, tx.Commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
