// The catefolio CLI processes bank statements locally: the same pipeline as
// the API, backed by an in-memory store, with results printed as JSON.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/catefolio/backend/internal/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	root := &cobra.Command{
		Use:           "catefolio",
		Short:         "Process bank statements into categorized transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newProcessCmd(log))
	root.AddCommand(newConvertCmd(log))
	root.AddCommand(newCategoriesCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
