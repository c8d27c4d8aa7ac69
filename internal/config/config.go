package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	minRecentLimit = 1
	maxRecentLimit = 200
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LeetCode LeetCodeConfig `yaml:"leetcode"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Clerk    ClerkConfig    `yaml:"clerk"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LeetCodeConfig struct {
	GraphQLEndpoint string        `yaml:"graphql_endpoint"`
	Origin          string        `yaml:"origin"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	RecentLimit     int           `yaml:"recent_limit"`
	ProxyURL        string        `yaml:"proxy_url"`

	// Session and CSRF seed the session bridge at boot. Both or neither.
	Session string `yaml:"session"`
	CSRF    string `yaml:"csrf"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	DailyTTL   time.Duration `yaml:"daily_ttl"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	// URL is a libsql DSN. Empty disables persistence.
	URL string `yaml:"url"`
}

type UpstreamConfig struct {
	RatePerSecond   int  `yaml:"rate_per_second"`
	BreakerFailures int  `yaml:"breaker_failures"`
	MockFallback    bool `yaml:"mock_fallback"`
}

type ClerkConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			HandlerTimeout: 25 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		LeetCode: LeetCodeConfig{
			GraphQLEndpoint: "https://leetcode.com/graphql/",
			Origin:          "https://leetcode.com",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:         20 * time.Second,
			RecentLimit:     20,
			ProxyURL:        "http://localhost:8080/graphql-proxy",
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			DailyTTL:   6 * time.Hour,
			SessionTTL: time.Hour,
		},
		Database: DatabaseConfig{
			URL: "file:./data/leetdash.db",
		},
		Upstream: UpstreamConfig{
			RatePerSecond:   2,
			BreakerFailures: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// LEETDASH_CONFIG, then the environment (including .env).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("LEETDASH_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	origins := strings.Join(cfg.Server.AllowedOrigins, ",")

	cfg.Server.Port = GetEnv("PORT", cfg.Server.Port).(int)
	cfg.Server.HandlerTimeout = GetEnv("HANDLER_TIMEOUT", cfg.Server.HandlerTimeout).(time.Duration)
	cfg.Server.AllowedOrigins = parseList(GetEnv("ALLOWED_ORIGINS", origins).(string))

	cfg.LeetCode.GraphQLEndpoint = GetEnv("LEETCODE_GRAPHQL_ENDPOINT", cfg.LeetCode.GraphQLEndpoint).(string)
	cfg.LeetCode.Origin = GetEnv("LEETCODE_ORIGIN", cfg.LeetCode.Origin).(string)
	cfg.LeetCode.UserAgent = GetEnv("LEETCODE_USER_AGENT", cfg.LeetCode.UserAgent).(string)
	cfg.LeetCode.Timeout = GetEnv("LEETCODE_TIMEOUT", cfg.LeetCode.Timeout).(time.Duration)
	cfg.LeetCode.RecentLimit = GetEnv("LEETCODE_RECENT_LIMIT", cfg.LeetCode.RecentLimit).(int)
	cfg.LeetCode.ProxyURL = GetEnv("LEETCODE_PROXY_URL", cfg.LeetCode.ProxyURL).(string)
	cfg.LeetCode.Session = GetEnv("LEETCODE_SESSION", cfg.LeetCode.Session).(string)
	cfg.LeetCode.CSRF = GetEnv("LEETCODE_CSRF", cfg.LeetCode.CSRF).(string)

	cfg.Cache.TTL = GetEnv("CACHE_TTL", cfg.Cache.TTL).(time.Duration)
	cfg.Cache.DailyTTL = GetEnv("CACHE_DAILY_TTL", cfg.Cache.DailyTTL).(time.Duration)
	cfg.Cache.SessionTTL = GetEnv("SESSION_TTL", cfg.Cache.SessionTTL).(time.Duration)

	cfg.Database.URL = GetEnv("DATABASE_URL", cfg.Database.URL).(string)

	cfg.Upstream.RatePerSecond = GetEnv("UPSTREAM_RATE_PER_SECOND", cfg.Upstream.RatePerSecond).(int)
	cfg.Upstream.BreakerFailures = GetEnv("UPSTREAM_BREAKER_FAILURES", cfg.Upstream.BreakerFailures).(int)
	cfg.Upstream.MockFallback = GetEnv("MOCK_FALLBACK", cfg.Upstream.MockFallback).(bool)

	cfg.Clerk.SecretKey = GetEnv("CLERK_SECRET_KEY", cfg.Clerk.SecretKey).(string)

	cfg.Log.Level = GetEnv("LOG_LEVEL", cfg.Log.Level).(string)
	cfg.Log.Format = GetEnv("LOG_FORMAT", cfg.Log.Format).(string)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Server.HandlerTimeout <= 0 {
		return fmt.Errorf("HANDLER_TIMEOUT must be positive")
	}
	if c.LeetCode.GraphQLEndpoint == "" {
		return fmt.Errorf("missing LEETCODE_GRAPHQL_ENDPOINT")
	}
	if (c.LeetCode.Session == "") != (c.LeetCode.CSRF == "") {
		return fmt.Errorf("LEETCODE_SESSION and LEETCODE_CSRF must be set together")
	}
	c.LeetCode.RecentLimit = clampInt(c.LeetCode.RecentLimit, minRecentLimit, maxRecentLimit)
	if c.Upstream.RatePerSecond <= 0 {
		c.Upstream.RatePerSecond = 1
	}
	if c.Upstream.BreakerFailures <= 0 {
		c.Upstream.BreakerFailures = 1
	}
	return nil
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func GetEnv(key string, defaultValue any) any {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch def := defaultValue.(type) {
	case string:
		return value
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		return def
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		return def
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		return def
	default:
		panic(fmt.Sprintf("unsupported type %T", defaultValue))
	}
}
