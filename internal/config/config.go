// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheLocal  = "local"
	CacheMemory = "memory"
	CacheGCS    = "gcs"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Cache   CacheConfig   `mapstructure:"cache"`
	DB      DBConfig      `mapstructure:"db"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig locates the site being crawled.
type SourceConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	CalendarPath string `mapstructure:"calendar_path"`
}

// CrawlerConfig governs the crawl pipeline.
type CrawlerConfig struct {
	Concurrency   int    `mapstructure:"concurrency"`
	UserAgent     string `mapstructure:"user_agent"`
	KnownForLimit int    `mapstructure:"known_for_limit"`
}

// HTTPConfig configures the fetcher's HTTP client. A zero timeout keeps the
// client's default.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// CacheConfig selects where the cache documents live.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls the relational output store.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// NotifyConfig holds the Pub/Sub destination for run summaries. Empty
// ProjectID disables publishing.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the optional status server. Empty Addr disables it.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SUPERMOVIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://www.imdb.com")
	v.SetDefault("source.calendar_path", "/calendar/?ref_=nv_mv_cal")
	v.SetDefault("crawler.concurrency", 1)
	v.SetDefault("crawler.user_agent", "supermovie/0.1")
	v.SetDefault("crawler.known_for_limit", 4)
	v.SetDefault("http.timeout_seconds", 0)
	v.SetDefault("cache.backend", CacheLocal)
	v.SetDefault("cache.dir", ".")
	v.SetDefault("cache.gcs_bucket", "")
	v.SetDefault("cache.prefix", "")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "super_movie.sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic", "supermovie-runs")
	v.SetDefault("server.addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	base, err := url.Parse(c.Source.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("source.base_url must be an absolute url")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.KnownForLimit <= 0 {
		return fmt.Errorf("crawler.known_for_limit must be > 0")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0")
	}
	switch c.Cache.Backend {
	case CacheLocal:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir must be set for the local backend")
		}
	case CacheMemory:
	case CacheGCS:
		if c.Cache.GCSBucket == "" {
			return fmt.Errorf("cache.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("db.path must be set for sqlite")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for postgres")
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.Notify.ProjectID != "" && c.Notify.Topic == "" {
		return fmt.Errorf("notify.topic must be set when notify.project_id is set")
	}
	return nil
}

// CalendarURL joins the base URL and the calendar path.
func (c Config) CalendarURL() string {
	return strings.TrimRight(c.Source.BaseURL, "/") + "/" + strings.TrimLeft(c.Source.CalendarPath, "/")
}

// Timeout converts the HTTP timeout to a duration. Zero means unset.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
