// internal/cli/root.go
//
// Command-line entry points.
//   - memorama serve    run the HTTP/WebSocket game server (default).
//   - memorama migrate  apply database migrations and exit.
//
// Every command loads .env, then the optional config file, then the
// environment, and configures the global zerolog logger from the result.

package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/memorama/internal/config"
)

// RootOptions holds global flags and the config they resolve to.
type RootOptions struct {
	ConfigFile string
	EnvFile    string

	Config config.Config
}

// NewRootCommand creates the root command. Running it without a subcommand
// serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "memorama",
		Short:         "Memory-matching game server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.Config)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", os.Getenv("MEMORAMA_CONFIG"), "config file (yaml/json/toml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	return cmd
}

func (o *RootOptions) load() error {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return err
	}
	o.Config = cfg

	zerolog.SetGlobalLevel(cfg.LogLevel)
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}
