package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("memorama exited")
		os.Exit(1)
	}
}
