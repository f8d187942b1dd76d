// Package render produces the static PNG artifacts: scatter plots and a
// density heatmap drawn over a street-map background.
package render

import (
	"context"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/basemap"
	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

// Static renders PNG artifacts. Each render call assembles its own basemap
// layer; the tile source's cache absorbs the duplicate fetches.
type Static struct {
	Tiles     basemap.TileSource
	LayerOpts basemap.LayerOptions
	Palette   *palette.Palette
	OutDir    string
	// Boundaries are optional overlay geometries (e.g. district outlines)
	// stroked over every static render.
	Boundaries []geom.T
}

func (s *Static) layer(ctx context.Context, records []dataset.Record) (*basemap.Layer, error) {
	return basemap.NewLayer(ctx, dataset.Lons(records), dataset.Lats(records), s.Tiles, s.LayerOpts)
}

func (s *Static) save(dc *gg.Context, name string) (string, error) {
	if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "render: create output dir %s", s.OutDir)
	}
	path := filepath.Join(s.OutDir, name)
	if err := dc.SavePNG(path); err != nil {
		return "", eris.Wrapf(err, "render: write %s", path)
	}
	zap.L().Info("artifact written", zap.String("path", path))
	return path, nil
}

func drawTitle(dc *gg.Context, title string) {
	w := float64(dc.Width())
	dc.SetColor(color.NRGBA{A: 255})
	dc.DrawStringAnchored(title, w/2, 16, 0.5, 0.5)
}

// drawLegend paints colored patches with labels in the top-left corner over
// a white backing box.
func drawLegend(dc *gg.Context, entries []palette.Entry) {
	if len(entries) == 0 {
		return
	}

	const (
		pad     = 8.0
		row     = 18.0
		swatch  = 6.0
		textGap = 14.0
	)

	maxLabel := 0.0
	for _, e := range entries {
		if w, _ := dc.MeasureString(e.Label); w > maxLabel {
			maxLabel = w
		}
	}

	boxW := pad*2 + swatch*2 + textGap + maxLabel
	boxH := pad*2 + row*float64(len(entries))

	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 230})
	dc.DrawRectangle(pad, pad, boxW, boxH)
	dc.Fill()

	for i, e := range entries {
		cy := pad*2 + row*float64(i) + row/2
		dc.SetColor(e.Color)
		dc.DrawCircle(pad*2+swatch, cy, swatch)
		dc.Fill()
		dc.SetColor(color.NRGBA{A: 255})
		dc.DrawStringAnchored(e.Label, pad*2+swatch*2+textGap, cy, 0, 0.35)
	}
}

// drawBoundaries strokes overlay geometries through the layer projection.
func drawBoundaries(dc *gg.Context, layer *basemap.Layer, geoms []geom.T) {
	if len(geoms) == 0 {
		return
	}

	dc.SetColor(color.NRGBA{R: 60, G: 60, B: 60, A: 200})
	dc.SetLineWidth(1.5)

	for _, g := range geoms {
		switch t := g.(type) {
		case *geom.LineString:
			strokePath(dc, layer, t.Coords())
		case *geom.MultiLineString:
			for i := 0; i < t.NumLineStrings(); i++ {
				strokePath(dc, layer, t.LineString(i).Coords())
			}
		case *geom.Polygon:
			for i := 0; i < t.NumLinearRings(); i++ {
				strokePath(dc, layer, t.LinearRing(i).Coords())
			}
		case *geom.MultiPolygon:
			for i := 0; i < t.NumPolygons(); i++ {
				p := t.Polygon(i)
				for j := 0; j < p.NumLinearRings(); j++ {
					strokePath(dc, layer, p.LinearRing(j).Coords())
				}
			}
		}
	}
}

func strokePath(dc *gg.Context, layer *basemap.Layer, coords []geom.Coord) {
	if len(coords) < 2 {
		return
	}
	dc.NewSubPath()
	for i, c := range coords {
		x, y := layer.Project(c[0], c[1])
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
}
