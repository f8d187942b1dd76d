// Package basemap assembles street-map raster backgrounds from XYZ tile
// servers and exposes the geographic-to-pixel projection for overlays.
package basemap

import (
	"context"
	"image"
	"image/draw"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoCoordinates is returned when a layer is requested for an empty
// coordinate set, which would otherwise produce degenerate bounds.
var ErrNoCoordinates = eris.New("basemap: no coordinates")

// LayerOptions configures layer assembly.
type LayerOptions struct {
	TargetWidth int // desired raster width in pixels
	MaxZoom     int
	TileSize    int
	Concurrency int // parallel tile fetches
}

// Layer is a rendered background: a street-map raster cropped to the data's
// bounding box plus the projection from (lon, lat) to raster pixels.
type Layer struct {
	img      *image.NRGBA
	bounds   *geom.Bounds // X dimension is longitude, Y is latitude
	zoom     int
	tileSize int
	// global web-mercator pixel coordinates of the raster's top-left corner
	originX float64
	originY float64
}

// NewLayer computes the bounding box of the given coordinates, fetches the
// covering web-mercator tiles, and stitches them into a raster cropped to
// the box.
func NewLayer(ctx context.Context, lons, lats []float64, src TileSource, opts LayerOptions) (*Layer, error) {
	if len(lons) == 0 || len(lats) == 0 {
		return nil, ErrNoCoordinates
	}
	if len(lons) != len(lats) {
		return nil, eris.Errorf("basemap: coordinate length mismatch: %d lons, %d lats", len(lons), len(lats))
	}
	if opts.TargetWidth <= 0 {
		opts.TargetWidth = 1500
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 17
	}
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	minLon, maxLon := lons[0], lons[0]
	minLat, maxLat := lats[0], lats[0]
	for i := range lons {
		minLon = math.Min(minLon, lons[i])
		maxLon = math.Max(maxLon, lons[i])
		minLat = math.Min(minLat, lats[i])
		maxLat = math.Max(maxLat, lats[i])
	}
	bounds := geom.NewBounds(geom.XY).Set(minLon, minLat, maxLon, maxLat)

	zoom := pickZoom(minLon, minLat, maxLon, maxLat, opts.TargetWidth, opts.MaxZoom, opts.TileSize)
	ts := opts.TileSize

	tx0, ty0 := tileAt(minLon, maxLat, zoom)
	tx1, ty1 := tileAt(maxLon, minLat, zoom)

	stitched, err := fetchAndStitch(ctx, src, zoom, tx0, ty0, tx1, ty1, ts, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	// Crop the stitched tiles down to the data's bounding box.
	px0, py0 := globalPixel(minLon, maxLat, zoom, ts)
	px1, py1 := globalPixel(maxLon, minLat, zoom, ts)
	left := int(px0 - float64(tx0*ts))
	top := int(py0 - float64(ty0*ts))
	right := int(math.Ceil(px1 - float64(tx0*ts)))
	bottom := int(math.Ceil(py1 - float64(ty0*ts)))
	if right <= left {
		right = left + 1
	}
	if bottom <= top {
		bottom = top + 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, right-left, bottom-top))
	draw.Draw(img, img.Bounds(), stitched, image.Pt(left, top), draw.Src)

	zap.L().Info("basemap layer assembled",
		zap.Int("zoom", zoom),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Int("tiles", (tx1-tx0+1)*(ty1-ty0+1)),
	)

	return &Layer{
		img:      img,
		bounds:   bounds,
		zoom:     zoom,
		tileSize: ts,
		originX:  float64(tx0*ts) + float64(left),
		originY:  float64(ty0*ts) + float64(top),
	}, nil
}

// Project maps a geographic coordinate to pixel coordinates on the layer's
// raster.
func (l *Layer) Project(lon, lat float64) (float64, float64) {
	gx, gy := globalPixel(lon, lat, l.zoom, l.tileSize)
	return gx - l.originX, gy - l.originY
}

// Image returns the rendered background raster.
func (l *Layer) Image() *image.NRGBA { return l.img }

// Bounds returns the data bounding box the layer covers (X=lon, Y=lat).
func (l *Layer) Bounds() *geom.Bounds { return l.bounds }

// Zoom returns the web-mercator zoom level the layer was assembled at.
func (l *Layer) Zoom() int { return l.zoom }

// tileFloat converts a coordinate to fractional tile coordinates at zoom z.
func tileFloat(lon, lat float64, z int) (float64, float64) {
	n := float64(int(1) << z)
	x := (lon + 180) / 360 * n
	latRad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return x, y
}

// tileAt returns the integer tile containing the coordinate, clamped to the
// valid range at zoom z.
func tileAt(lon, lat float64, z int) (int, int) {
	xf, yf := tileFloat(lon, lat, z)
	max := (1 << z) - 1
	x := min(max, int(math.Max(0, math.Floor(xf))))
	y := min(max, int(math.Max(0, math.Floor(yf))))
	return x, y
}

// globalPixel converts a coordinate to global web-mercator pixel
// coordinates at zoom z.
func globalPixel(lon, lat float64, z, tileSize int) (float64, float64) {
	xf, yf := tileFloat(lon, lat, z)
	return xf * float64(tileSize), yf * float64(tileSize)
}

// pickZoom selects the largest zoom whose raster for the box fits within
// the target width.
func pickZoom(minLon, minLat, maxLon, maxLat float64, targetWidth, maxZoom, tileSize int) int {
	for z := maxZoom; z > 0; z-- {
		x0, y0 := globalPixel(minLon, maxLat, z, tileSize)
		x1, y1 := globalPixel(maxLon, minLat, z, tileSize)
		if x1-x0 <= float64(targetWidth) && y1-y0 <= float64(targetWidth) {
			return z
		}
	}
	return 0
}

// fetchAndStitch downloads the tile rectangle concurrently and composes the
// tiles into one raster.
func fetchAndStitch(ctx context.Context, src TileSource, zoom, tx0, ty0, tx1, ty1, tileSize, concurrency int) (*image.NRGBA, error) {
	cols := tx1 - tx0 + 1
	rows := ty1 - ty0 + 1

	tiles := make([]image.Image, cols*rows)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			tx, ty := tx, ty
			slot := (ty-ty0)*cols + (tx - tx0)
			g.Go(func() error {
				img, err := src.Tile(gctx, zoom, tx, ty)
				if err != nil {
					return err
				}
				tiles[slot] = img
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stitched := image.NewNRGBA(image.Rect(0, 0, cols*tileSize, rows*tileSize))
	for i, tile := range tiles {
		col := i % cols
		row := i / cols
		rect := image.Rect(col*tileSize, row*tileSize, (col+1)*tileSize, (row+1)*tileSize)
		draw.Draw(stitched, rect, tile, tile.Bounds().Min, draw.Src)
	}
	return stitched, nil
}
