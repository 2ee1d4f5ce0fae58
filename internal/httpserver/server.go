// internal/httpserver/server.go
//
// HTTP server wiring for the memorama backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/leaderboard".
//   - Game endpoints (optional auth): /game/new, /game/{id}/*, including the WebSocket feed.
//   - Daily board endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Sessions live in memory; only won rounds reach the database.
//   - Card symbols are only ever sent for face-up or matched cards.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/config"
	"github.com/robalobadob/memorama/internal/feed"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/results"
	"github.com/robalobadob/memorama/internal/sched"
	"github.com/robalobadob/memorama/internal/store"
)

const requestTimeout = 10 * time.Second

// Deps are the collaborators a Server needs. Sessions, DB and Config are
// required; the rest default.
type Deps struct {
	Sessions  store.Store
	DB        *sql.DB
	Config    config.Config
	Palette   []game.Symbol
	Scheduler sched.Scheduler  // shared by every engine; defaults to wall-clock timers
	NewRNG    func() game.RNG  // free-play shuffles
	Now       func() time.Time // daily date and session bookkeeping
	Logger    *zerolog.Logger
}

// Server bundles router, sessions and persistence.
type Server struct {
	r       *chi.Mux
	store   store.Store
	db      *sql.DB
	results *results.Store
	cfg     config.Config
	palette []game.Symbol
	sched   sched.Scheduler
	newRNG  func() game.RNG
	now     func() time.Time
	log     zerolog.Logger

	writes  sync.WaitGroup    // in-flight result inserts
	claimMu sync.Mutex        // orders guest claims against result inserts
	claimed map[string]string // anon id -> user that claimed it
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		store:   d.Sessions,
		db:      d.DB,
		results: results.NewStore(d.DB),
		cfg:     d.Config,
		palette: d.Palette,
		sched:   d.Scheduler,
		newRNG:  d.NewRNG,
		now:     d.Now,
		claimed: make(map[string]string),
	}
	if s.palette == nil {
		s.palette = game.DefaultPalette()
	}
	if s.sched == nil {
		s.sched = sched.NewTimers()
	}
	if s.newRNG == nil {
		s.newRNG = game.DefaultRNG
	}
	if s.now == nil {
		s.now = time.Now
	}
	if d.Logger != nil {
		s.log = *d.Logger
	} else {
		s.log = log.Logger
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog(s.log))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(cors(s.cfg.ClientOrigin))

	// Game endpoints: OPTIONAL AUTH (guests can play). WebSocket streams are
	// long-lived, so they sit outside the timeout group.
	s.r.Route("/game", func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Get("/{id}/ws", s.handleWS)
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Post("/new", s.handleNewGame)
			r.Get("/{id}", s.withSession(s.handleGetGame))
			r.Delete("/{id}", s.handleDeleteGame)
			r.Post("/{id}/start", s.withSession(s.handleStart))
			r.Post("/{id}/restart", s.withSession(s.handleRestart))
			r.Post("/{id}/flip", s.withSession(s.handleFlip))
			r.Post("/{id}/difficulty", s.withSession(s.handleDifficulty))
		})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"memorama-go","endpoints":["/health","POST /game/new","POST /game/{id}/flip","GET /game/{id}/ws","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Get("/leaderboard", s.handleLeaderboard)

		// Daily board: OPTIONAL AUTH (guests can play; results persisted on win)
		s.mountDaily(r.With(s.withOptionalAuth()))

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Drain blocks until every pending result insert has finished.
func (s *Server) Drain() { s.writes.Wait() }

// ------------------------------ views --------------------------------------

// stateView is the client-facing snapshot of a session.
type stateView struct {
	GameID     string          `json:"gameId"`
	Round      int             `json:"round"`
	Phase      game.Phase      `json:"phase"`
	Difficulty string          `json:"difficulty"`
	Columns    int             `json:"columns"`
	TotalPairs int             `json:"totalPairs"`
	Cards      []feed.CardView `json:"cards"`
	Moves      int             `json:"moves"`
	Matched    int             `json:"matchedPairs"`
	Elapsed    int             `json:"elapsedSeconds"`
	Clock      string          `json:"time"`
	Daily      string          `json:"daily,omitempty"`
}

func viewOf(sess *store.Session) stateView {
	st := sess.Engine.Snapshot()
	return stateView{
		GameID:     st.ID,
		Round:      st.Round,
		Phase:      st.Phase,
		Difficulty: st.Difficulty.Name,
		Columns:    st.Difficulty.Columns,
		TotalPairs: st.Difficulty.Pairs,
		Cards:      feed.Views(st.Cards),
		Moves:      st.Moves,
		Matched:    st.Matched,
		Elapsed:    st.Elapsed,
		Clock:      st.Clock,
		Daily:      sess.DailyDate,
	}
}

// ------------------------------ GAME ---------------------------------------

type newGameReq struct {
	Difficulty string `json:"difficulty"`
}
type newGameRes struct {
	GameID string    `json:"gameId"`
	State  stateView `json:"state"`
}

// handleNewGame deals a fresh board owned by the caller (user or anon cookie).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// An empty body selects easy; anything else must decode.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	diff, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	sess, err := s.openSession(w, r, diff, s.newRNG(), "")
	if err != nil {
		s.log.Error().Err(err).Msg("open session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: sess.ID, State: viewOf(sess)})
}

// openSession builds the engine + feed pair, wires the win hook and stores it.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, diff game.Difficulty, rng game.RNG, dailyDate string) (*store.Session, error) {
	now := s.now()
	sess := &store.Session{
		ID:        uuid.NewString(),
		DailyDate: dailyDate,
		CreatedAt: now,
	}
	if me := userFrom(r.Context()); me != nil {
		sess.UserID = me.ID
	} else {
		sess.AnonymousID = s.ensureAnonID(w, r)
	}

	lg := s.log.With().Str("game", sess.ID).Logger()
	sess.Feed = feed.New(lg)
	eng, err := game.New(game.Options{
		ID:         sess.ID,
		Difficulty: diff,
		Palette:    s.palette,
		RNG:        rng,
		Scheduler:  s.sched,
		Presenter:  sess.Feed,
		Logger:     &lg,
	})
	if err != nil {
		return nil, err
	}
	sess.Engine = eng
	sess.Feed.OnWin(s.recordWin(sess))
	sess.Touch(now)

	if err := s.store.Save(r.Context(), sess); err != nil {
		eng.Close()
		return nil, err
	}
	lg.Info().Str("difficulty", diff.Name).Str("daily", dailyDate).Msg("session opened")
	return sess, nil
}

// recordWin persists a won round off the engine's goroutine. Daily boards
// only count the owner's first win of the day; the unique daily indexes turn
// later wins into ErrDuplicate. A guest who signed in mid-round is credited
// on their account.
func (s *Server) recordWin(sess *store.Session) func(game.Summary) {
	return func(sum game.Summary) {
		s.writes.Add(1)
		go func() {
			defer s.writes.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			res := results.Result{
				GameID:      sess.ID,
				UserID:      sess.UserID,
				AnonymousID: sess.AnonymousID,
				Difficulty:  sum.Difficulty,
				DailyDate:   sess.DailyDate,
				Moves:       sum.Moves,
				Elapsed:     sum.Elapsed,
			}

			s.claimMu.Lock()
			defer s.claimMu.Unlock()
			if res.UserID == "" {
				if uid, ok := s.claimed[res.AnonymousID]; ok {
					res.UserID, res.AnonymousID = uid, ""
				}
			}
			err := s.results.Insert(ctx, res)
			switch {
			case errors.Is(err, results.ErrDuplicate):
				s.log.Debug().Str("game", sess.ID).Str("daily", sess.DailyDate).Msg("daily already recorded")
			case err != nil:
				s.log.Warn().Err(err).Str("game", sess.ID).Msg("insert result")
			}
		}()
	}
}

// withSession resolves {id} and hands the session to h.
func (s *Server) withSession(h func(http.ResponseWriter, *http.Request, *store.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	sess.Engine.Start()
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	sess.Engine.Restart()
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

type flipReq struct {
	Index *int `json:"index"`
}

// handleFlip applies one flip. Illegal flips are no-ops and return the
// unchanged view.
func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	var req flipReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess.Engine.Flip(*req.Index)
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

type difficultyReq struct {
	Difficulty string `json:"difficulty"`
	Confirm    bool   `json:"confirm"`
}

// handleDifficulty switches level. A round in progress is only discarded
// when the client confirms.
func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	var req difficultyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if sess.DailyDate != "" {
		writeError(w, http.StatusConflict, "daily_fixed")
		return
	}
	diff, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	if sess.Engine.Phase().InProgress() && !req.Confirm {
		writeError(w, http.StatusConflict, "confirm_required")
		return
	}
	if err := sess.Engine.ChangeDifficulty(diff); err != nil {
		writeError(w, http.StatusBadRequest, errorCode(err))
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

// --------------------------- leaderboard -----------------------------------

type leaderboardRes struct {
	Difficulty string        `json:"difficulty"`
	Top        []results.Row `json:"top"`
}

// handleLeaderboard lists the fastest free-play wins for a difficulty.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	diff, err := game.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), diff.Name, "", queryLimit(r))
	if err != nil {
		s.log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Difficulty: diff.Name, Top: rows})
}

// ------------------------------- small util --------------------------------

// writeError sends {"error": code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// errorCode maps engine errors onto stable client codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrUnknownDifficulty):
		return "unknown_difficulty"
	case errors.Is(err, game.ErrPaletteTooSmall):
		return "palette_too_small"
	default:
		return "invalid_difficulty"
	}
}

// queryLimit reads ?limit=, falling back to the default on junk.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 || n > 100 {
		return results.DefaultLimit
	}
	return n
}
