// Package store persists imported crime records so render and stats
// commands can run without re-reading the source extract.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/district-insights/crimemap/internal/config"
	"github.com/district-insights/crimemap/internal/dataset"
)

// ImportRun records one import of a source extract. A new run replaces
// the previous record set.
type ImportRun struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Loaded    int       `json:"loaded"`
	Dropped   int       `json:"dropped"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the stored record set.
type Stats struct {
	Records   int            `json:"records"`
	ByOffense map[string]int `json:"by_offense"`
	ByMethod  map[string]int `json:"by_method"`
	MinLon    float64        `json:"min_lon"`
	MinLat    float64        `json:"min_lat"`
	MaxLon    float64        `json:"max_lon"`
	MaxLat    float64        `json:"max_lat"`
}

// Store defines the persistence interface for imported records.
type Store interface {
	// ReplaceRecords atomically swaps the stored record set for the given
	// one and records the import run.
	ReplaceRecords(ctx context.Context, source string, records []dataset.Record, dropped int) (*ImportRun, error)
	ListRecords(ctx context.Context) ([]dataset.Record, error)
	ListRuns(ctx context.Context, limit int) ([]ImportRun, error)
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
