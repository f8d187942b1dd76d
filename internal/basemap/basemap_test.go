package basemap

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidSource returns a uniform tile for any coordinate and records how
// many tiles were requested.
type solidSource struct {
	requests atomic.Int64
}

func (s *solidSource) Tile(_ context.Context, _, _, _ int) (image.Image, error) {
	s.requests.Add(1)
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := range img.Pix {
		img.Pix[i] = 0xee
	}
	return img, nil
}

// Rough DC-area coordinates.
var (
	dcLons = []float64{-77.10, -77.03, -76.95}
	dcLats = []float64{38.85, 38.90, 38.99}
)

func TestNewLayer_EmptyCoordinates(t *testing.T) {
	src := &solidSource{}
	_, err := NewLayer(context.Background(), nil, nil, src, LayerOptions{})
	require.ErrorIs(t, err, ErrNoCoordinates)
}

func TestNewLayer_LengthMismatch(t *testing.T) {
	src := &solidSource{}
	_, err := NewLayer(context.Background(), []float64{-77}, []float64{38.9, 38.8}, src, LayerOptions{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "length mismatch")
}

func TestNewLayer_CoversBoundingBox(t *testing.T) {
	src := &solidSource{}
	layer, err := NewLayer(context.Background(), dcLons, dcLats, src, LayerOptions{TargetWidth: 800})
	require.NoError(t, err)

	b := layer.Bounds()
	assert.InDelta(t, -77.10, b.Min(0), 1e-9)
	assert.InDelta(t, -76.95, b.Max(0), 1e-9)
	assert.InDelta(t, 38.85, b.Min(1), 1e-9)
	assert.InDelta(t, 38.99, b.Max(1), 1e-9)

	// Raster fits the requested width and is non-degenerate.
	w := layer.Image().Bounds().Dx()
	h := layer.Image().Bounds().Dy()
	assert.Greater(t, w, 0)
	assert.Greater(t, h, 0)
	assert.LessOrEqual(t, w, 800+1)
	assert.Greater(t, src.requests.Load(), int64(0))
}

func TestLayer_ProjectCorners(t *testing.T) {
	src := &solidSource{}
	layer, err := NewLayer(context.Background(), dcLons, dcLats, src, LayerOptions{TargetWidth: 800})
	require.NoError(t, err)

	w := float64(layer.Image().Bounds().Dx())
	h := float64(layer.Image().Bounds().Dy())

	// Top-left of the raster is (minLon, maxLat); bottom-right is
	// (maxLon, minLat). Allow a pixel of crop rounding.
	x, y := layer.Project(-77.10, 38.99)
	assert.InDelta(t, 0, x, 1.5)
	assert.InDelta(t, 0, y, 1.5)

	x, y = layer.Project(-76.95, 38.85)
	assert.InDelta(t, w, x, 1.5)
	assert.InDelta(t, h, y, 1.5)

	// Interior point projects inside.
	x, y = layer.Project(-77.03, 38.90)
	assert.Greater(t, x, 0.0)
	assert.Less(t, x, w)
	assert.Greater(t, y, 0.0)
	assert.Less(t, y, h)
}

func TestLayer_ProjectOrientation(t *testing.T) {
	src := &solidSource{}
	layer, err := NewLayer(context.Background(), dcLons, dcLats, src, LayerOptions{TargetWidth: 800})
	require.NoError(t, err)

	// East means larger x, north means smaller y.
	x1, y1 := layer.Project(-77.05, 38.88)
	x2, y2 := layer.Project(-77.00, 38.95)
	assert.Greater(t, x2, x1)
	assert.Less(t, y2, y1)
}

func TestTileFloat_Origin(t *testing.T) {
	// (0, 0) sits at the center of the world grid.
	x, y := tileFloat(0, 0, 1)
	assert.InDelta(t, 1.0, x, 1e-9)
	assert.InDelta(t, 1.0, y, 1e-9)
}

func TestPickZoom_ShrinksWithTarget(t *testing.T) {
	zWide := pickZoom(-77.10, 38.85, -76.95, 38.99, 3000, 17, 256)
	zNarrow := pickZoom(-77.10, 38.85, -76.95, 38.99, 400, 17, 256)
	assert.Greater(t, zWide, zNarrow)
	assert.LessOrEqual(t, zWide, 17)
	assert.GreaterOrEqual(t, zNarrow, 0)
}

func TestNewLayer_SinglePoint(t *testing.T) {
	src := &solidSource{}
	layer, err := NewLayer(context.Background(), []float64{-77.0}, []float64{38.9}, src, LayerOptions{TargetWidth: 800, MaxZoom: 12})
	require.NoError(t, err)

	// Degenerate box still yields a drawable raster at max zoom.
	assert.Equal(t, 12, layer.Zoom())
	assert.GreaterOrEqual(t, layer.Image().Bounds().Dx(), 1)
	assert.GreaterOrEqual(t, layer.Image().Bounds().Dy(), 1)
}

func TestFetchAndStitch_PlacesTiles(t *testing.T) {
	// Source that colors tiles by x parity so placement is observable.
	src := tileFunc(func(_ context.Context, _, x, _ int) (image.Image, error) {
		img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
		c := color.NRGBA{R: 255, A: 255}
		if x%2 == 0 {
			c = color.NRGBA{B: 255, A: 255}
		}
		for py := 0; py < 256; py++ {
			for px := 0; px < 256; px++ {
				img.SetNRGBA(px, py, c)
			}
		}
		return img, nil
	})

	stitched, err := fetchAndStitch(context.Background(), src, 10, 4, 7, 5, 7, 256, 2)
	require.NoError(t, err)
	require.Equal(t, 512, stitched.Bounds().Dx())
	require.Equal(t, 256, stitched.Bounds().Dy())

	assert.Equal(t, color.NRGBA{B: 255, A: 255}, stitched.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, stitched.NRGBAAt(300, 10))
}

type tileFunc func(ctx context.Context, z, x, y int) (image.Image, error)

func (f tileFunc) Tile(ctx context.Context, z, x, y int) (image.Image, error) {
	return f(ctx, z, x, y)
}
