package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/memorama/internal/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenMigrated(opts.Config.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info().Str("db", opts.Config.DBPath).Msg("schema up to date")
			return nil
		},
	}
}
