package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset" mapstructure:"dataset"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Basemap     BasemapConfig     `yaml:"basemap" mapstructure:"basemap"`
	Interactive InteractiveConfig `yaml:"interactive" mapstructure:"interactive"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// DatasetConfig configures the crime dataset source and cleaning.
type DatasetConfig struct {
	// Source is a local path or an http(s)/ftp URL to a CSV or XLSX file.
	Source string `yaml:"source" mapstructure:"source"`
	// DropRows are zero-based data-row indices removed after load. The
	// defaults match two known out-of-district outliers in the published
	// DC homicide subset.
	DropRows []int `yaml:"drop_rows" mapstructure:"drop_rows"`
	// BBoxFilter, when set as [minLon, minLat, maxLon, maxLat], replaces
	// positional dropping with a coordinate-range filter.
	BBoxFilter []float64 `yaml:"bbox_filter" mapstructure:"bbox_filter"`
	// Sheet selects the XLSX sheet by name (first sheet if empty).
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// OutputConfig configures rendered artifact placement.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Palette string `yaml:"palette" mapstructure:"palette"` // optional palette override YAML
}

// BasemapConfig configures the street-map tile source for static renders.
type BasemapConfig struct {
	TileURL     string  `yaml:"tile_url" mapstructure:"tile_url"` // XYZ template with {z}/{x}/{y}
	TargetWidth int     `yaml:"target_width" mapstructure:"target_width"`
	MaxZoom     int     `yaml:"max_zoom" mapstructure:"max_zoom"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // tiles per second
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	CacheSize   int     `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMin int     `yaml:"cache_ttl_min" mapstructure:"cache_ttl_min"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// InteractiveConfig configures the browser map document.
type InteractiveConfig struct {
	// TileURL is an XYZ template; {key} is replaced with APIKey. With an
	// empty key the provider serves nothing and tiles render blank, which
	// is intentionally not validated here.
	TileURL     string  `yaml:"tile_url" mapstructure:"tile_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	CenterLat   float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon   float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom        int     `yaml:"zoom" mapstructure:"zoom"`
	Attribution string  `yaml:"attribution" mapstructure:"attribution"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRIMEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.source", "data/crime_homicide_subset.csv")
	v.SetDefault("dataset.drop_rows", []int{222, 758})
	v.SetDefault("output.dir", "output")
	v.SetDefault("basemap.tile_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("basemap.target_width", 1500)
	v.SetDefault("basemap.max_zoom", 17)
	v.SetDefault("basemap.rate_limit", 10)
	v.SetDefault("basemap.concurrency", 4)
	v.SetDefault("basemap.cache_size", 2048)
	v.SetDefault("basemap.cache_ttl_min", 60)
	v.SetDefault("basemap.user_agent", "crimemap/1.0")
	v.SetDefault("interactive.tile_url", "https://api.maptiler.com/maps/streets-v2/{z}/{x}/{y}.png?key={key}")
	v.SetDefault("interactive.api_key", "")
	v.SetDefault("interactive.center_lat", 38.89511)
	v.SetDefault("interactive.center_lon", -77.03637)
	v.SetDefault("interactive.zoom", 11)
	v.SetDefault("interactive.attribution", "&copy; MapTiler &copy; OpenStreetMap contributors")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "crimemap.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
