package model

import "time"

// Config is the complete LawAI client configuration
type Config struct {
	Backend      BackendConfig      `yaml:"backend" mapstructure:"backend"`
	Inference    InferenceConfig    `yaml:"inference" mapstructure:"inference"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Normalize    NormalizeConfig    `yaml:"normalize" mapstructure:"normalize"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// BackendConfig holds the base URLs of the remote services. The case and
// inference endpoints and the statute catalog have historically lived on
// different deployments, so they are configured independently.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	CatalogURL       string `yaml:"catalog_url" mapstructure:"catalog_url"`
	InferencePath    string `yaml:"inference_path" mapstructure:"inference_path"`
	CaseSavePath     string `yaml:"case_save_path" mapstructure:"case_save_path"`
	CaseListPath     string `yaml:"case_list_path" mapstructure:"case_list_path"`
	RejectEmptyQuery bool   `yaml:"reject_empty_query" mapstructure:"reject_empty_query"`
}

// InferenceConfig selects the inference provider
type InferenceConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "http" or "openai"
	Model     string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HTTPConfig configures the outbound HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the inference response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
}

// RateLimitingConfig bounds outbound requests per backend host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// NormalizeConfig tunes response normalization
type NormalizeConfig struct {
	StripMarkup bool `yaml:"strip_markup" mapstructure:"strip_markup"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:       "https://sih-backend-881i.onrender.com",
			CatalogURL:    "https://sih-backend-seven.vercel.app",
			InferencePath: "/encode/",
			CaseSavePath:  "/case_save/",
			CaseListPath:  "/case_list/",
		},
		Inference: InferenceConfig{
			Provider:  "http",
			MaxTokens: 800,
		},
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second, // free-tier backends cold-start slowly
			UserAgent:    "LawAI-CLI/0.1",
			MaxBodyBytes: 5_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
			Dir:       "cache", // relative dirs live under ~/.lawai
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Normalize: NormalizeConfig{
			StripMarkup: false,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
