package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crimemap",
	Short: "Crime map renderer for Washington DC",
	Long:  "Loads the DC crime extract, renders street-map scatter plots and a density heatmap as PNGs, and builds an interactive browser map with offense/weapon recoloring.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
