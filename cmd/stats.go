package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/district-insights/crimemap/internal/store"
)

var statsRunLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored record set",
	Long:  "Prints record counts by offense and weapon, the coordinate bounds, and recent import runs as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		runs, err := s.ListRuns(ctx, statsRunLimit)
		if err != nil {
			return err
		}

		out := struct {
			*store.Stats
			Runs []store.ImportRun `json:"runs"`
		}{stats, runs}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "stats: encode")
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsRunLimit, "runs", 5, "number of recent import runs to include")
	rootCmd.AddCommand(statsCmd)
}
