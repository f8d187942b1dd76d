package render

import (
	"context"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

const (
	markerRadius = 4.0
	markerAlpha  = 102 // ~0.4
)

// Scatter renders one semi-transparent marker per record over a freshly
// assembled basemap, colored by the given mode, and writes the PNG.
//
// Colors are resolved for every record before any drawing starts, so a
// category outside the palette enumeration fails the whole render rather
// than producing a partially colored artifact.
func (s *Static) Scatter(ctx context.Context, records []dataset.Record, mode palette.Mode) (string, error) {
	colors := make([]color.NRGBA, len(records))
	for i, r := range records {
		c, err := s.Palette.ColorFor(mode, palette.CategoryOf(mode, r))
		if err != nil {
			return "", eris.Wrapf(err, "render: scatter record %d", i)
		}
		c.A = markerAlpha
		colors[i] = c
	}

	layer, err := s.layer(ctx, records)
	if err != nil {
		return "", err
	}

	dc := gg.NewContextForImage(layer.Image())
	for i, r := range records {
		x, y := layer.Project(r.Longitude, r.Latitude)
		dc.SetColor(colors[i])
		dc.DrawCircle(x, y, markerRadius)
		dc.Fill()
	}

	drawBoundaries(dc, layer, s.Boundaries)

	title := "Scatter plot of crimes in DC"
	switch mode {
	case palette.ModeOffense:
		title += " according to the type of offence"
		drawLegend(dc, s.Palette.Legend(mode))
	case palette.ModeMethod:
		title += " according to the weapon"
		drawLegend(dc, s.Palette.Legend(mode))
	}
	drawTitle(dc, title)

	name := scatterFileName(mode)
	path, err := s.save(dc, name)
	if err != nil {
		return "", err
	}

	zap.L().Info("scatter rendered",
		zap.String("mode", string(mode)),
		zap.Int("records", len(records)),
	)
	return path, nil
}

func scatterFileName(mode palette.Mode) string {
	switch mode {
	case palette.ModeOffense:
		return "scatter_offense.png"
	case palette.ModeMethod:
		return "scatter_method.png"
	default:
		return "scatter.png"
	}
}
