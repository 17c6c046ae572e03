package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	GSC      GSCConfig      `yaml:"gsc"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Bedrock  BedrockConfig  `yaml:"bedrock"`
	Redis    RedisConfig    `yaml:"redis"`
	Polling  PollingConfig  `yaml:"polling"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Insights InsightsConfig `yaml:"insights"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// GSCConfig holds Google Search Console API credentials and query settings
type GSCConfig struct {
	ClientEmail    string `yaml:"client_email"`
	PrivateKey     string `yaml:"private_key"`
	SiteURL        string `yaml:"site_url"`
	RowLimit       int    `yaml:"row_limit"`
	WindowDays     int    `yaml:"window_days"`
	LagDays        int    `yaml:"lag_days"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RatePerMinute  int    `yaml:"rate_per_minute"`
}

// Timeout returns the configured timeout as a duration
func (c GSCConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether the required GSC credentials are present
func (c GSCConfig) Configured() bool {
	return c.ClientEmail != "" && c.PrivateKey != "" && c.SiteURL != ""
}

// GeminiConfig holds Gemini API configuration for narrative insights
type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c GeminiConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BedrockConfig holds AWS Bedrock configuration for the alternative
// narrative provider, selected via insights.provider
type BedrockConfig struct {
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	TTLHours int    `yaml:"ttl_hours"`
}

// TTL returns the cache entry lifetime as a duration
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// PollingConfig holds collector refresh settings
type PollingConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// Interval returns the polling interval as a duration
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// CatalogConfig holds knowledge-node catalog settings
type CatalogConfig struct {
	Path string `yaml:"path"` // optional YAML catalog override
}

// InsightsConfig selects the narrative provider
type InsightsConfig struct {
	Provider string `yaml:"provider"` // "gemini" (default) or "bedrock"
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.GSC.RowLimit == 0 {
		cfg.GSC.RowLimit = 50
	}
	if cfg.GSC.WindowDays == 0 {
		cfg.GSC.WindowDays = 30
	}
	if cfg.GSC.LagDays == 0 {
		// Search Console data trails real time by about two days
		cfg.GSC.LagDays = 2
	}
	if cfg.GSC.TimeoutSeconds == 0 {
		cfg.GSC.TimeoutSeconds = 30
	}
	if cfg.GSC.RatePerMinute == 0 {
		cfg.GSC.RatePerMinute = 20
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	// BaseURL is left empty on purpose: the provider carries the full
	// versioned endpoint, and an override here must be equally complete
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 30
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLHours == 0 {
		cfg.Redis.TTLHours = 24
	}
	if cfg.Polling.IntervalMinutes == 0 {
		cfg.Polling.IntervalMinutes = 360
	}
	if cfg.Insights.Provider == "" {
		cfg.Insights.Provider = "gemini"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// A missing config file is not fatal: defaults plus env vars are enough to
// run the service.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if v := os.Getenv("GSC_CLIENT_EMAIL"); v != "" {
		cfg.GSC.ClientEmail = v
	}
	if v := os.Getenv("GSC_PRIVATE_KEY"); v != "" {
		// Deployment platforms flatten the PEM newlines into literal "\n"
		cfg.GSC.PrivateKey = strings.ReplaceAll(v, `\n`, "\n")
	}
	if v := os.Getenv("GSC_SITE_URL"); v != "" {
		cfg.GSC.SiteURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		// Trim to avoid whitespace issues from copied .env values
		cfg.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("INSIGHTS_PROVIDER"); v != "" {
		cfg.Insights.Provider = v
	}

	return cfg, nil
}
