package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/ingest"
	"github.com/catefolio/backend/internal/template"
)

func newConvertCmd(log zerolog.Logger) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "convert <statement>...",
		Short: "Convert statements into the ledger spreadsheet layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}

			var all []domain.Transaction
			for _, file := range files {
				frame, err := ingest.ReadFrame(file.Name, file.Data)
				if err != nil {
					return err
				}
				transactions, skipped, err := ingest.Normalize(frame)
				if err != nil {
					return err
				}
				if skipped > 0 {
					log.Warn().Str("file", file.Name).Int("skipped", skipped).Msg("rows skipped")
				}
				all = append(all, transactions...)
			}

			out, err := template.Build(all)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outFile, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outFile, err)
			}
			log.Info().Str("out", outFile).Int("rows", len(all)).Msg("workbook written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "ledger.xlsx", "output workbook path")
	return cmd
}
