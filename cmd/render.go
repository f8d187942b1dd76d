package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/district-insights/crimemap/internal/interactive"
	"github.com/district-insights/crimemap/internal/palette"
)

var (
	renderFromStore  bool
	renderBoundaries string
	scatterFeature   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render map artifacts",
}

var renderScatterCmd = &cobra.Command{
	Use:   "scatter",
	Short: "Render the scatter plot PNG",
	Long:  "Draws one marker per crime over a street-map raster. --feature offense colors by offense type, --feature method by weapon.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		mode, err := featureMode(scatterFeature)
		if err != nil {
			return err
		}

		records, err := loadRecords(ctx, renderFromStore)
		if err != nil {
			return err
		}
		static, err := newStatic(renderBoundaries)
		if err != nil {
			return err
		}

		_, err = static.Scatter(ctx, records, mode)
		return err
	},
}

var renderHeatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Render the density heatmap PNG",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, err := loadRecords(ctx, renderFromStore)
		if err != nil {
			return err
		}
		static, err := newStatic(renderBoundaries)
		if err != nil {
			return err
		}

		_, err = static.Heatmap(ctx, records)
		return err
	},
}

var renderInteractiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Render the interactive browser map",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, err := loadRecords(ctx, renderFromStore)
		if err != nil {
			return err
		}
		pal, err := loadPalette()
		if err != nil {
			return err
		}

		i := &interactive.Interactive{
			Cfg:     cfg.Interactive,
			Palette: pal,
			OutDir:  cfg.Output.Dir,
		}
		_, err = i.Render(records)
		return err
	},
}

var renderAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Render every artifact",
	Long:  "Renders the plain, offense-colored, and weapon-colored scatter plots, the density heatmap, and the interactive map. The tile cache is shared so the street-map rasters are fetched once.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), renderFromStore)
		if err != nil {
			return err
		}
		static, err := newStatic(renderBoundaries)
		if err != nil {
			return err
		}

		// Renderers are independent: one failing artifact must not cancel
		// the others, so no shared cancellation context here.
		ctx := cmd.Context()
		var g errgroup.Group
		run := func(artifact string, fn func() error) func() error {
			return func() error {
				if err := fn(); err != nil {
					zap.L().Error("render failed", zap.String("artifact", artifact), zap.Error(err))
					return err
				}
				return nil
			}
		}

		for _, mode := range []palette.Mode{palette.ModeAll, palette.ModeOffense, palette.ModeMethod} {
			g.Go(run(scatterName(mode), func() error {
				_, err := static.Scatter(ctx, records, mode)
				return err
			}))
		}
		g.Go(run("heatmap", func() error {
			_, err := static.Heatmap(ctx, records)
			return err
		}))
		g.Go(run("interactive", func() error {
			i := &interactive.Interactive{
				Cfg:     cfg.Interactive,
				Palette: static.Palette,
				OutDir:  cfg.Output.Dir,
			}
			_, err := i.Render(records)
			return err
		}))
		return g.Wait()
	},
}

func scatterName(mode palette.Mode) string {
	if mode == palette.ModeAll {
		return "scatter"
	}
	return "scatter " + string(mode)
}

func featureMode(feature string) (palette.Mode, error) {
	switch feature {
	case "":
		return palette.ModeAll, nil
	case "offense":
		return palette.ModeOffense, nil
	case "method":
		return palette.ModeMethod, nil
	default:
		return "", eris.Errorf("unknown feature %q (use offense or method)", feature)
	}
}

func init() {
	renderCmd.PersistentFlags().BoolVar(&renderFromStore, "from-store", false, "read records from the store instead of the source extract")
	renderCmd.PersistentFlags().StringVar(&renderBoundaries, "boundaries", "", "shapefile with boundary outlines to overlay on static renders")
	renderScatterCmd.Flags().StringVar(&scatterFeature, "feature", "", "color markers by offense or method")

	renderCmd.AddCommand(renderScatterCmd)
	renderCmd.AddCommand(renderHeatmapCmd)
	renderCmd.AddCommand(renderInteractiveCmd)
	renderCmd.AddCommand(renderAllCmd)
	rootCmd.AddCommand(renderCmd)
}
