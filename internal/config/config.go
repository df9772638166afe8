package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chid93/next-gen-prf/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Tiles   TilesConfig   `yaml:"tiles" mapstructure:"tiles"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownSecs   int      `yaml:"shutdown_secs" mapstructure:"shutdown_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// DataConfig locates the polygon layers and the state table.
type DataConfig struct {
	GridsPath          string `yaml:"grids_path" mapstructure:"grids_path"`
	CountiesPath       string `yaml:"counties_path" mapstructure:"counties_path"`
	StatesPath         string `yaml:"states_path" mapstructure:"states_path"`
	GridIDProperty     string `yaml:"grid_id_property" mapstructure:"grid_id_property"`
	CountyNameProperty string `yaml:"county_name_property" mapstructure:"county_name_property"`
	StateCodeProperty  string `yaml:"state_code_property" mapstructure:"state_code_property"`
	Index              bool   `yaml:"index" mapstructure:"index"`
	DestDir            string `yaml:"dest_dir" mapstructure:"dest_dir"`
	CountiesURL        string `yaml:"counties_url" mapstructure:"counties_url"`
	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent"`
}

// MapConfig configures new map sessions.
type MapConfig struct {
	CenterLat       float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng       float64 `yaml:"center_lng" mapstructure:"center_lng"`
	InitialZoom     int     `yaml:"initial_zoom" mapstructure:"initial_zoom"`
	FocusZoom       int     `yaml:"focus_zoom" mapstructure:"focus_zoom"`
	GridLabelZoom   int     `yaml:"grid_label_zoom" mapstructure:"grid_label_zoom"`
	CountyLabelZoom int     `yaml:"county_label_zoom" mapstructure:"county_label_zoom"`
	TileURL         string  `yaml:"tile_url" mapstructure:"tile_url"`
	MaxZoom         int     `yaml:"max_zoom" mapstructure:"max_zoom"`
	Attribution     string  `yaml:"attribution" mapstructure:"attribution"`
}

// GeocodeConfig configures the Nominatim client.
type GeocodeConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	CountryCodes  []string      `yaml:"country_codes" mapstructure:"country_codes"`
	Limit         int           `yaml:"limit" mapstructure:"limit"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	CacheSize     int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins  int           `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	Breaker       BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// TilesConfig configures the basemap tile proxy.
type TilesConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	CacheSize     int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins  int           `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	TimeoutSecs   int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Breaker       BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of an upstream.
type BreakerConfig struct {
	Failures     int `yaml:"failures" mapstructure:"failures"`
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prf.db")
	v.SetDefault("data.grids_path", "data/grids.geojson")
	v.SetDefault("data.counties_path", "data/counties.geojson")
	v.SetDefault("data.grid_id_property", "GRIDCODE")
	v.SetDefault("data.county_name_property", "NAME")
	v.SetDefault("data.state_code_property", "STATEFP")
	v.SetDefault("data.index", true)
	v.SetDefault("data.dest_dir", "data")
	v.SetDefault("data.counties_url", "https://www2.census.gov/geo/tiger/TIGER2023/COUNTY/tl_2023_us_county.zip")
	v.SetDefault("data.user_agent", "prf/1.0")
	v.SetDefault("map.center_lat", 39.8333)
	v.SetDefault("map.center_lng", -94.5833)
	v.SetDefault("map.initial_zoom", 4)
	v.SetDefault("map.focus_zoom", 10)
	v.SetDefault("map.grid_label_zoom", 10)
	v.SetDefault("map.county_label_zoom", 8)
	v.SetDefault("map.tile_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("map.max_zoom", 19)
	v.SetDefault("map.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.country_codes", []string{"us"})
	v.SetDefault("geocode.limit", 5)
	v.SetDefault("geocode.rate_per_second", 1.0)
	v.SetDefault("geocode.user_agent", "prf/1.0")
	v.SetDefault("geocode.cache_size", 500)
	v.SetDefault("geocode.cache_ttl_mins", 60)
	v.SetDefault("geocode.breaker.failures", 5)
	v.SetDefault("geocode.breaker.cooldown_secs", 30)
	v.SetDefault("tiles.enabled", true)
	v.SetDefault("tiles.cache_size", 2048)
	v.SetDefault("tiles.cache_ttl_mins", 720)
	v.SetDefault("tiles.rate_per_second", 10.0)
	v.SetDefault("tiles.timeout_secs", 15)
	v.SetDefault("tiles.breaker.failures", 10)
	v.SetDefault("tiles.breaker.cooldown_secs", 30)

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

// Validate checks the settings a command mode depends on. Modes are
// "serve", "resolve" and "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Map.MaxZoom < 1 {
			errs = append(errs, "map.max_zoom must be >= 1")
		}
		if c.Map.InitialZoom < 0 || c.Map.InitialZoom > c.Map.MaxZoom {
			errs = append(errs, "map.initial_zoom must be between 0 and map.max_zoom")
		}
		if c.Geocode.RatePerSecond <= 0 {
			errs = append(errs, "geocode.rate_per_second must be > 0")
		}
		errs = append(errs, c.validateData()...)
		errs = append(errs, c.validateStore()...)
	case "resolve":
		errs = append(errs, c.validateData()...)
	case "export":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateData() []string {
	var errs []string
	if c.Data.GridsPath == "" {
		errs = append(errs, "data.grids_path is required")
	}
	if c.Data.CountiesPath == "" {
		errs = append(errs, "data.counties_path is required")
	}
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return []string{"store.driver must be sqlite or postgres"}
	}
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
	}
	return nil
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
