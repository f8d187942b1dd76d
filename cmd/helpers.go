package main

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/district-insights/crimemap/internal/basemap"
	"github.com/district-insights/crimemap/internal/boundary"
	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
	"github.com/district-insights/crimemap/internal/render"
	"github.com/district-insights/crimemap/internal/store"
)

// openStore opens the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadPalette builds the offense/weapon palette, applying the optional
// override file from config.
func loadPalette() (*palette.Palette, error) {
	pal := palette.Default()
	if cfg.Output.Palette != "" {
		if err := pal.LoadOverrides(cfg.Output.Palette); err != nil {
			return nil, err
		}
	}
	return pal, nil
}

func newTileSource() (*basemap.HTTPTileSource, error) {
	return basemap.NewHTTPTileSource(basemap.HTTPTileSourceOptions{
		URLTemplate: cfg.Basemap.TileURL,
		UserAgent:   cfg.Basemap.UserAgent,
		RateLimit:   rate.Limit(cfg.Basemap.RateLimit),
		CacheSize:   cfg.Basemap.CacheSize,
		CacheTTL:    time.Duration(cfg.Basemap.CacheTTLMin) * time.Minute,
	})
}

// newStatic assembles the static PNG renderer, optionally loading boundary
// overlay geometries from a shapefile.
func newStatic(boundariesPath string) (*render.Static, error) {
	pal, err := loadPalette()
	if err != nil {
		return nil, err
	}
	tiles, err := newTileSource()
	if err != nil {
		return nil, err
	}

	s := &render.Static{
		Tiles: tiles,
		LayerOpts: basemap.LayerOptions{
			TargetWidth: cfg.Basemap.TargetWidth,
			MaxZoom:     cfg.Basemap.MaxZoom,
			Concurrency: cfg.Basemap.Concurrency,
		},
		Palette: pal,
		OutDir:  cfg.Output.Dir,
	}

	if boundariesPath != "" {
		geoms, err := boundary.LoadShapefile(boundariesPath)
		if err != nil {
			return nil, err
		}
		s.Boundaries = geoms
	}
	return s, nil
}

// loadRecords reads records either from the store or straight from the
// configured source extract.
func loadRecords(ctx context.Context, fromStore bool) ([]dataset.Record, error) {
	if fromStore {
		s, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.ListRecords(ctx)
	}
	records, _, err := dataset.Load(ctx, cfg.Dataset)
	return records, err
}
