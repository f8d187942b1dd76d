package render

import (
	"context"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/dataset"
)

const (
	// heatmapEdges bin edges per axis give a 499x499 cell grid.
	heatmapEdges = 500
	// binPadding extends the grid one degree past the data bounds.
	binPadding = 1.0
	cellAlpha  = 51 // ~0.2
)

// Heatmap bins record coordinates into a 2-D grid, renders the raw-count
// density as a semi-transparent pseudocolor overlay on a freshly assembled
// basemap, and writes the PNG.
func (s *Static) Heatmap(ctx context.Context, records []dataset.Record) (string, error) {
	layer, err := s.layer(ctx, records)
	if err != nil {
		return "", err
	}

	b := layer.Bounds()
	lonEdges := linspace(b.Min(0)-binPadding, b.Max(0)+binPadding, heatmapEdges)
	latEdges := linspace(b.Min(1)-binPadding, b.Max(1)+binPadding, heatmapEdges)

	density := histogram2D(dataset.Lons(records), dataset.Lats(records), lonEdges, latEdges)

	maxCount := 0
	for _, row := range density {
		for _, n := range row {
			if n > maxCount {
				maxCount = n
			}
		}
	}

	dc := gg.NewContextForImage(layer.Image())
	for li := 0; li < len(latEdges)-1; li++ {
		for lj := 0; lj < len(lonEdges)-1; lj++ {
			t := 0.0
			if maxCount > 0 {
				t = float64(density[li][lj]) / float64(maxCount)
			}
			c := jet(t)
			c.A = cellAlpha

			x0, y0 := layer.Project(lonEdges[lj], latEdges[li+1])
			x1, y1 := layer.Project(lonEdges[lj+1], latEdges[li])
			if x1 < -1 || y1 < -1 || x0 > float64(dc.Width())+1 || y0 > float64(dc.Height())+1 {
				continue // cell entirely outside the raster
			}

			dc.SetColor(c)
			dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
			dc.Fill()
		}
	}

	drawBoundaries(dc, layer, s.Boundaries)
	drawTitle(dc, "Heatmap of crimes in DC")

	path, err := s.save(dc, "heatmap.png")
	if err != nil {
		return "", err
	}

	zap.L().Info("heatmap rendered",
		zap.Int("records", len(records)),
		zap.Int("max_bin_count", maxCount),
	)
	return path, nil
}

// linspace returns n equally spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// histogram2D counts coordinates per (lat, lon) cell. Rows index latitude
// cells, columns longitude cells. Coordinates outside the edge range are
// ignored; values on the upper edge land in the last cell.
func histogram2D(lons, lats, lonEdges, latEdges []float64) [][]int {
	rows := len(latEdges) - 1
	cols := len(lonEdges) - 1
	density := make([][]int, rows)
	for i := range density {
		density[i] = make([]int, cols)
	}

	for i := range lons {
		li, ok := binIndex(lats[i], latEdges)
		if !ok {
			continue
		}
		lj, ok := binIndex(lons[i], lonEdges)
		if !ok {
			continue
		}
		density[li][lj]++
	}
	return density
}

func binIndex(v float64, edges []float64) (int, bool) {
	lo, hi := edges[0], edges[len(edges)-1]
	if v < lo || v > hi {
		return 0, false
	}
	if v == hi {
		return len(edges) - 2, true
	}
	step := (hi - lo) / float64(len(edges)-1)
	idx := int((v - lo) / step)
	if idx > len(edges)-2 {
		idx = len(edges) - 2
	}
	return idx, true
}

// jet approximates the classic jet color ramp: dark blue through green to
// red as t goes 0 to 1.
func jet(t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	r := clamp01(1.5 - math.Abs(4*t-3))
	g := clamp01(1.5 - math.Abs(4*t-2))
	b := clamp01(1.5 - math.Abs(4*t-1))
	return color.NRGBA{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
