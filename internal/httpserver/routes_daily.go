// internal/httpserver/routes_daily.go
//
// Daily board endpoints.
//   - POST /daily/new: today's hard board, identical for every player.
//   - GET  /daily/leaderboard?date=YYYY-MM-DD (default today).
//
// A player's first daily win of the day is recorded; later wins are not.
// Sessions are reused per owner and date so reloading does not re-deal.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/memorama/internal/daily"
	"github.com/robalobadob/memorama/internal/results"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	mu       sync.Mutex        // guards sessions
	sessions map[string]string // owner|date -> session id
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, sessions: make(map[string]string)}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID string     `json:"gameId,omitempty"`
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	State  *stateView `json:"state,omitempty"`
}

// handleNew creates or reuses today's session for the caller.
//   - Already won today: Played=true and no session.
//   - Otherwise the live session for owner+date, or a fresh one.
//
// A signed-in caller still carrying a guest cookie owns both identities, so
// a board dealt before login is neither re-dealt nor replayed.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	now := s.now()
	date := daily.DateKey(now)

	var userID, anonID string
	var owners []string
	if me := userFrom(r.Context()); me != nil {
		userID, anonID = me.ID, anonCookie(r)
		owners = append(owners, "u:"+me.ID)
	} else {
		anonID = s.ensureAnonID(w, r)
	}
	if anonID != "" {
		owners = append(owners, "a:"+anonID)
	}

	played, err := s.results.PlayedDaily(r.Context(), userID, anonID, date)
	if err != nil {
		s.log.Error().Err(err).Msg("check daily")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if played {
		_ = json.NewEncoder(w).Encode(newRes{Date: date, Played: true})
		return
	}

	key := owners[0] + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, owner := range owners {
		id, ok := d.sessions[owner+"|"+date]
		if !ok {
			continue
		}
		if sess, err := s.store.Get(r.Context(), id); err == nil {
			d.sessions[key] = sess.ID
			v := viewOf(sess)
			_ = json.NewEncoder(w).Encode(newRes{GameID: sess.ID, Date: date, State: &v})
			return
		}
	}

	sess, err := s.openSession(w, r, daily.Difficulty, daily.RNG(now, s.cfg.DailySalt), date)
	if err != nil {
		s.log.Error().Err(err).Msg("open daily session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	for k := range d.sessions {
		if !strings.HasSuffix(k, "|"+date) {
			delete(d.sessions, k) // yesterday's boards
		}
	}
	d.sessions[key] = sess.ID

	v := viewOf(sess)
	_ = json.NewEncoder(w).Encode(newRes{GameID: sess.ID, Date: date, State: &v})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []results.Row `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.srv.results.Leaderboard(r.Context(), daily.Difficulty.Name, date, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
