package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	AppEnv   string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	// AllowedOrigins is a comma separated list of origins allowed to open viewer websockets
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	MapAccessToken string  `mapstructure:"MAP_ACCESS_TOKEN"`
	MapStyle       string  `mapstructure:"MAP_STYLE"`
	InitialLon     float64 `mapstructure:"INITIAL_LON"`
	InitialLat     float64 `mapstructure:"INITIAL_LAT"`
	InitialZoom    float64 `mapstructure:"INITIAL_ZOOM"`

	DataDir        string `mapstructure:"DATA_DIR"`
	CitiesSource   string `mapstructure:"CITIES_SOURCE"`
	AirportsSource string `mapstructure:"AIRPORTS_SOURCE"`

	SourceCacheTTL         time.Duration `mapstructure:"SOURCE_CACHE_TTL"`
	DatasetRefreshInterval time.Duration `mapstructure:"DATASET_REFRESH_INTERVAL"`
	ViewerQueueSize        int           `mapstructure:"VIEWER_QUEUE_SIZE"`
}

// LoadConfig reads .env.<APP_ENV> from the given directories (the working
// directory when none are given). Environment variables take precedence.
func LoadConfig(paths ...string) (c Config, err error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()

	v.SetDefault("PORT", ":8080")
	v.SetDefault("APP_ENV", env)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("MAP_ACCESS_TOKEN", "")
	v.SetDefault("MAP_STYLE", "mapbox://styles/mapbox/dark-v11")
	v.SetDefault("INITIAL_LON", -74.0242)
	v.SetDefault("INITIAL_LAT", 40.6941)
	v.SetDefault("INITIAL_ZOOM", 10.12)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("CITIES_SOURCE", "cities.csv")
	v.SetDefault("AIRPORTS_SOURCE", "airports.csv")
	v.SetDefault("SOURCE_CACHE_TTL", 10*time.Minute)
	v.SetDefault("DATASET_REFRESH_INTERVAL", 30*time.Minute)
	v.SetDefault("VIEWER_QUEUE_SIZE", 256)

	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks ranges of the viewport and worker settings
func (c Config) Validate() error {
	var errs []string

	if c.InitialLon < -180 || c.InitialLon > 180 {
		errs = append(errs, fmt.Sprintf("INITIAL_LON must be in [-180, 180], got %v", c.InitialLon))
	}
	if c.InitialLat < -90 || c.InitialLat > 90 {
		errs = append(errs, fmt.Sprintf("INITIAL_LAT must be in [-90, 90], got %v", c.InitialLat))
	}
	if c.InitialZoom < 0 || c.InitialZoom > 22 {
		errs = append(errs, fmt.Sprintf("INITIAL_ZOOM must be in [0, 22], got %v", c.InitialZoom))
	}
	if c.ViewerQueueSize <= 0 {
		errs = append(errs, "VIEWER_QUEUE_SIZE must be positive")
	}
	if c.SourceCacheTTL < 0 || c.DatasetRefreshInterval < 0 {
		errs = append(errs, "durations must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Level parses LOG_LEVEL, falling back to info
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsDevelopment reports whether the app runs in the development environment
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Origins splits ALLOWED_ORIGINS, dropping blanks and trailing slashes
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
