package basemap

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/district-insights/crimemap/internal/fetcher"
)

// TileSource supplies decoded raster tiles for layer assembly.
type TileSource interface {
	Tile(ctx context.Context, z, x, y int) (image.Image, error)
}

// HTTPTileSourceOptions configures an HTTPTileSource.
type HTTPTileSourceOptions struct {
	// URLTemplate is an XYZ template containing {z}, {x}, {y}.
	URLTemplate string
	UserAgent   string
	RateLimit   rate.Limit
	CacheSize   int
	CacheTTL    time.Duration
}

// HTTPTileSource fetches street-map tiles from an upstream XYZ tile server,
// caching raw tile bytes.
type HTTPTileSource struct {
	template string
	client   *fetcher.HTTPFetcher
	cache    *TileCache
}

// NewHTTPTileSource creates a tile source for the given XYZ template.
func NewHTTPTileSource(opts HTTPTileSourceOptions) (*HTTPTileSource, error) {
	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(opts.URLTemplate, ph) {
			return nil, eris.Errorf("basemap: tile url template missing %s: %s", ph, opts.URLTemplate)
		}
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 2048
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}
	return &HTTPTileSource{
		template: opts.URLTemplate,
		client: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: opts.UserAgent,
			RateLimit: opts.RateLimit,
		}),
		cache: NewTileCache(opts.CacheSize, opts.CacheTTL),
	}, nil
}

func (s *HTTPTileSource) url(z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(s.template)
}

// Raw fetches a tile's encoded bytes, consulting the cache first.
func (s *HTTPTileSource) Raw(ctx context.Context, z, x, y int) ([]byte, error) {
	if cached := s.cache.Get(z, x, y); cached != nil {
		return cached, nil
	}

	url := s.url(z, x, y)
	body, err := s.client.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "basemap: fetch tile %d/%d/%d", z, x, y)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "basemap: read tile %d/%d/%d", z, x, y)
	}

	s.cache.Put(z, x, y, data)
	zap.L().Debug("basemap: fetched tile", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

// Tile fetches and decodes a tile image.
func (s *HTTPTileSource) Tile(ctx context.Context, z, x, y int) (image.Image, error) {
	data, err := s.Raw(ctx, z, x, y)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "basemap: decode tile %d/%d/%d", z, x, y)
	}
	return img, nil
}
