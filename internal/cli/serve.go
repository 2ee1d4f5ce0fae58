package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/memorama/internal/config"
	"github.com/robalobadob/memorama/internal/database"
	"github.com/robalobadob/memorama/internal/httpserver"
	"github.com/robalobadob/memorama/internal/palette"
	"github.com/robalobadob/memorama/internal/sched"
	"github.com/robalobadob/memorama/internal/store"
)

const shutdownGrace = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the HTTP and WebSocket game server.

Sessions live in memory and expire after SESSION_TTL of inactivity.
Won rounds are stored in the SQLite database at DB_PATH.

Example:
  memorama serve
  PORT=8080 LOG_LEVEL=debug memorama serve --config ./memorama.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.Config)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMigrated(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	pal, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		return err
	}

	sessions := store.NewMemoryStore()
	timers := sched.NewTimers()
	defer timers.Close()

	srv := httpserver.New(httpserver.Deps{
		Sessions:  sessions,
		DB:        db,
		Config:    cfg,
		Palette:   pal,
		Scheduler: timers,
	})
	go store.RunJanitor(ctx, sessions, cfg.SessionTTL, janitorInterval(cfg.SessionTTL))

	hs := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info().Str("addr", cfg.Addr()).Str("db", cfg.DBPath).Int("symbols", len(pal)).Msg("starting memorama")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	// Closing every session also ends hijacked WebSocket connections.
	if n := sessions.Expire(sctx, time.Now().Add(time.Hour)); n > 0 {
		log.Info().Int("sessions", n).Msg("closed sessions")
	}
	srv.Drain()
	return nil
}

// janitorInterval sweeps a few times per TTL, but not more than once a second.
func janitorInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv > time.Second {
		return iv
	}
	return time.Second
}
