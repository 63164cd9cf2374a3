// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the CLI and the MCP server.
type Config struct {
	PowHTTPBaseURL    string        // POWHTTP_BASE_URL, default "http://localhost:7777"
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	FetchTimeout      time.Duration // SDKGEN_FETCH_TIMEOUT_MS, default 60000ms
	FetchWorkers      int           // SDKGEN_FETCH_WORKERS, default 16
	FetchRPS          float64       // SDKGEN_FETCH_RPS, default 100 (0 = unlimited)
	FetchBurst        int           // SDKGEN_FETCH_BURST, default 20

	EntryCacheMaxItems int // SDKGEN_ENTRY_CACHE_MAX_ITEMS, default 4096
	InferCacheMaxItems int // SDKGEN_INFER_CACHE_MAX_ITEMS, default 8192

	// Analysis
	InferWorkers      int  // SDKGEN_INFER_WORKERS, default 8
	MaxBodyBytes      int  // SDKGEN_MAX_BODY_BYTES, default 1_048_576
	MaxDepth          int  // SDKGEN_MAX_DEPTH, default 32
	MinDistinctValues int  // SDKGEN_MIN_DISTINCT_VALUES, default 2
	IncludeAll        bool // SDKGEN_INCLUDE_ALL, default false (skip static assets)
	Conformance       bool // SDKGEN_CONFORMANCE, default true

	// Output
	OutputDir string   // SDKGEN_OUT, default "./sdk"
	Languages []string // SDKGEN_LANGUAGES, default "go,python,typescript"
	Title     string   // SDKGEN_TITLE, default "" (derived from the host)

	// MCP server
	RunStoreCapacity    int // SDKGEN_RUN_STORE_CAPACITY, default 16
	ToolMaxBytesDefault int // SDKGEN_TOOL_MAX_BYTES_DEFAULT, default 2_000_000

	// Logging configuration
	LogLevel      string // SDKGEN_LOG_LEVEL, default "info"
	LogFormat     string // SDKGEN_LOG_FORMAT, default "text"
	LogFile       string // SDKGEN_LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // SDKGEN_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // SDKGEN_LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // SDKGEN_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // SDKGEN_LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		PowHTTPBaseURL:    getEnvString("POWHTTP_BASE_URL", "http://localhost:7777"),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 10000),
		FetchTimeout:      getEnvDurationMs("SDKGEN_FETCH_TIMEOUT_MS", 60000),
		FetchWorkers:      getEnvInt("SDKGEN_FETCH_WORKERS", 16),
		FetchRPS:          getEnvFloat("SDKGEN_FETCH_RPS", 100),
		FetchBurst:        getEnvInt("SDKGEN_FETCH_BURST", 20),

		EntryCacheMaxItems: getEnvInt("SDKGEN_ENTRY_CACHE_MAX_ITEMS", 4096),
		InferCacheMaxItems: getEnvInt("SDKGEN_INFER_CACHE_MAX_ITEMS", 8192),

		InferWorkers:      getEnvInt("SDKGEN_INFER_WORKERS", 8),
		MaxBodyBytes:      getEnvInt("SDKGEN_MAX_BODY_BYTES", 1<<20),
		MaxDepth:          getEnvInt("SDKGEN_MAX_DEPTH", 32),
		MinDistinctValues: getEnvInt("SDKGEN_MIN_DISTINCT_VALUES", 2),
		IncludeAll:        getEnvBool("SDKGEN_INCLUDE_ALL", false),
		Conformance:       getEnvBool("SDKGEN_CONFORMANCE", true),

		OutputDir: getEnvString("SDKGEN_OUT", "./sdk"),
		Languages: getEnvList("SDKGEN_LANGUAGES", []string{"go", "python", "typescript"}),
		Title:     getEnvString("SDKGEN_TITLE", ""),

		RunStoreCapacity:    getEnvInt("SDKGEN_RUN_STORE_CAPACITY", 16),
		ToolMaxBytesDefault: getEnvInt("SDKGEN_TOOL_MAX_BYTES_DEFAULT", 2_000_000),

		LogLevel:      getEnvString("SDKGEN_LOG_LEVEL", "info"),
		LogFormat:     getEnvString("SDKGEN_LOG_FORMAT", "text"),
		LogFile:       getEnvString("SDKGEN_LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("SDKGEN_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("SDKGEN_LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("SDKGEN_LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("SDKGEN_LOG_COMPRESS", true),
	}
}

// ApplyViper overlays every key that is set in v (config file or bound
// flag) onto cfg. Keys are the snake_case field names, e.g. "fetch_workers"
// or "log_level". Unset keys leave the environment value in place.
func ApplyViper(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	setString(v, "powhttp_base_url", &cfg.PowHTTPBaseURL)
	setDurationMs(v, "http_client_timeout_ms", &cfg.HTTPClientTimeout)
	setDurationMs(v, "fetch_timeout_ms", &cfg.FetchTimeout)
	setInt(v, "fetch_workers", &cfg.FetchWorkers)
	if v.IsSet("fetch_rps") {
		cfg.FetchRPS = v.GetFloat64("fetch_rps")
	}
	setInt(v, "fetch_burst", &cfg.FetchBurst)
	setInt(v, "entry_cache_max_items", &cfg.EntryCacheMaxItems)
	setInt(v, "infer_cache_max_items", &cfg.InferCacheMaxItems)

	setInt(v, "infer_workers", &cfg.InferWorkers)
	setInt(v, "max_body_bytes", &cfg.MaxBodyBytes)
	setInt(v, "max_depth", &cfg.MaxDepth)
	setInt(v, "min_distinct_values", &cfg.MinDistinctValues)
	setBool(v, "include_all", &cfg.IncludeAll)
	setBool(v, "conformance", &cfg.Conformance)

	setString(v, "out", &cfg.OutputDir)
	if v.IsSet("languages") {
		cfg.Languages = splitList(v.GetStringSlice("languages"))
	}
	setString(v, "title", &cfg.Title)

	setInt(v, "run_store_capacity", &cfg.RunStoreCapacity)
	setInt(v, "tool_max_bytes_default", &cfg.ToolMaxBytesDefault)

	setString(v, "log_level", &cfg.LogLevel)
	setString(v, "log_format", &cfg.LogFormat)
	setString(v, "log_file", &cfg.LogFile)
	setInt(v, "log_max_size_mb", &cfg.LogMaxSizeMB)
	setInt(v, "log_max_backups", &cfg.LogMaxBackups)
	setInt(v, "log_max_age_days", &cfg.LogMaxAgeDays)
	setBool(v, "log_compress", &cfg.LogCompress)
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func setDurationMs(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = time.Duration(v.GetInt(key)) * time.Millisecond
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}

func getEnvList(key string, defaultVal []string) []string {
	if v := os.Getenv(key); v != "" {
		if list := splitList([]string{v}); len(list) > 0 {
			return list
		}
	}
	return defaultVal
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
