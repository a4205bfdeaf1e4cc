package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	Timezone           string
	// Storage backend: "mysql" or "memory"
	Storage     string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Cache backend: "redis" or "memory"
	CacheBackend  string
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Insights
	InsightsCacheTTLSeconds int
	InsightsDefaultDays     int
	InsightsMaxDays         int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// LoadFrom builds a configuration with precedence
// JSON file -> defaults -> environment variable overrides.
// A missing file is not an error; invalid JSON is.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.JWTSecret == "" {
		return c, ErrMissingJWTSecret
	}
	return c, nil
}

// Location resolves Timezone, falling back to the process local zone.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using local: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// InsightsCacheTTL returns the insights cache lifetime.
func (c AppConfig) InsightsCacheTTL() time.Duration {
	return time.Duration(c.InsightsCacheTTLSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued access tokens.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			if f, ok := v.(float64); ok {
				return int(f)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenTTLHours = getInt(app, "TokenTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.Timezone = getString(app, "Timezone")
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.Storage = getString(dbs, "Storage")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.CacheBackend = getString(rds, "CacheBackend")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if ins, ok := raw["insights"].(map[string]any); ok {
		out.InsightsCacheTTLSeconds = getInt(ins, "CacheTTLSeconds")
		out.InsightsDefaultDays = getInt(ins, "DefaultDays")
		out.InsightsMaxDays = getInt(ins, "MaxDays")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.Storage == "" {
		c.Storage = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBName == "" {
		c.DBName = "neoroutine"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.CacheBackend == "" {
		c.CacheBackend = "redis"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.InsightsCacheTTLSeconds == 0 {
		c.InsightsCacheTTLSeconds = 300
	}
	if c.InsightsDefaultDays == 0 {
		c.InsightsDefaultDays = 30
	}
	if c.InsightsMaxDays == 0 {
		c.InsightsMaxDays = 365
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/app.log"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("TOKEN_TTL_HOURS", ""); v != "" {
		c.TokenTTLHours = mustParseInt(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
	if v := getEnv("TIMEZONE", ""); v != "" {
		c.Timezone = v
	}
	if v := getEnv("STORAGE", ""); v != "" {
		c.Storage = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("CACHE_BACKEND", ""); v != "" {
		c.CacheBackend = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("INSIGHTS_CACHE_TTL_SECONDS", ""); v != "" {
		c.InsightsCacheTTLSeconds = mustParseInt(v)
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Printf("invalid integer value %q: %v", val, err)
		return 0
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
