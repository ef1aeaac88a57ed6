package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sources   SourcesConfig   `mapstructure:"sources"`
}

type ServerConfig struct {
	Port       int        `mapstructure:"port"`
	Mode       string     `mapstructure:"mode"`
	AdminToken string     `mapstructure:"admin_token"`
	CORS       CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type CrawlerConfig struct {
	Schedule     string        `mapstructure:"schedule"` // cron spec, e.g. "@every 6h"
	Enabled      bool          `mapstructure:"enabled"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
	PageLimit    int           `mapstructure:"page_limit"` // 0 means all discovered pages
	UserAgent    string        `mapstructure:"user_agent"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// RateLimitProfile mirrors ratelimit.Profile in config form. Durations are in
// milliseconds to keep YAML simple.
type RateLimitProfile struct {
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	MinDelayMs        int     `mapstructure:"min_delay_ms"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	MaxBackoffMs      int     `mapstructure:"max_backoff_ms"`
}

type RateLimitConfig struct {
	Default RateLimitProfile            `mapstructure:"default"`
	Sources map[string]RateLimitProfile `mapstructure:"sources"`
}

type SourcesConfig struct {
	TopCV    TopCVConfig    `mapstructure:"topcv"`
	LinkedIn LinkedInConfig `mapstructure:"linkedin"`
}

type TopCVConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	ListingURL string `mapstructure:"listing_url"`
}

type LinkedInConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	ListingURL string `mapstructure:"listing_url"`
	Keywords   string `mapstructure:"keywords"`
	Location   string `mapstructure:"location"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/jobpilot.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("crawler.schedule", "@every 6h")
	v.SetDefault("crawler.enabled", true)
	v.SetDefault("crawler.run_on_start", false)
	v.SetDefault("crawler.page_limit", 0)
	v.SetDefault("crawler.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("crawler.fetch_timeout", 30*time.Second)
	v.SetDefault("ratelimit.default.requests_per_minute", 30)
	v.SetDefault("ratelimit.default.min_delay_ms", 1000)
	v.SetDefault("ratelimit.default.backoff_multiplier", 2.0)
	v.SetDefault("ratelimit.default.max_backoff_ms", 60000)
	v.SetDefault("sources.topcv.enabled", true)
	v.SetDefault("sources.topcv.base_url", "https://www.topcv.vn")
	v.SetDefault("sources.topcv.listing_url", "https://www.topcv.vn/tim-viec-lam-it")
	v.SetDefault("sources.linkedin.enabled", false)
	v.SetDefault("sources.linkedin.base_url", "https://www.linkedin.com")
	v.SetDefault("sources.linkedin.listing_url", "https://www.linkedin.com/jobs/search")
	v.SetDefault("sources.linkedin.keywords", "software engineer")
	v.SetDefault("sources.linkedin.location", "Vietnam")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("server.admin_token", "ADMIN_TOKEN")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.name", "DB_NAME")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
