package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Master       MasterConfig       `yaml:"master" mapstructure:"master"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	MetricsFile  string             `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// HTTPConfig controls page retrieval
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// SourceConfig locates the archived pages
type SourceConfig struct {
	BaseURL          string        `yaml:"base_url" mapstructure:"base_url"`
	PagesDir         string        `yaml:"pages_dir" mapstructure:"pages_dir"`
	FromYear         int           `yaml:"from_year" mapstructure:"from_year"`
	ToYear           int           `yaml:"to_year" mapstructure:"to_year"`
	MinDocumentBytes int           `yaml:"min_document_bytes" mapstructure:"min_document_bytes"`
	PolitenessDelay  time.Duration `yaml:"politeness_delay" mapstructure:"politeness_delay"`
}

// CacheConfig controls the page cache tiers
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisURL  string        `yaml:"redis_url" mapstructure:"redis_url"` // Empty disables the Redis tier
	RedisTTL  time.Duration `yaml:"redis_ttl" mapstructure:"redis_ttl"`
}

// ConcurrencyConfig sizes the document worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-domain request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendered artifacts
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"` // csv, json, md
	Verbose bool     `yaml:"verbose" mapstructure:"verbose"`
}

// MasterConfig locates the persisted master dataset and reference dataset
type MasterConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	ReferencePath string `yaml:"reference_path" mapstructure:"reference_path"`
	DryRun        bool   `yaml:"dry_run" mapstructure:"dry_run"`
}

// LLMConfig controls the optional run digest
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Strict    bool   `yaml:"strict" mapstructure:"strict"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "hilal/0.1 (+https://github.com/ppiankov/hilal)",
			MaxBodyBytes:  5_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Source: SourceConfig{
			BaseURL:          "https://www.moonsighting.com",
			PagesDir:         "./moonsighting_html",
			FromYear:         1430,
			ToYear:           1447,
			MinDocumentBytes: 500,
			PolitenessDelay:  500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
			RedisTTL:  7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         1,
		},
		Output: OutputConfig{
			Dir:     "./hilal-out",
			Formats: []string{"csv", "json", "md"},
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
			Strict:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultCacheDir() string {
	return ".hilal-cache"
}
