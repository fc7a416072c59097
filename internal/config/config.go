package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	ModelPath      string   `mapstructure:"MODEL_PATH"`
	EncoderPath    string   `mapstructure:"ENCODER_PATH"`
	LLMURL         string   `mapstructure:"LLM_URL"`
	LLMModel       string   `mapstructure:"LLM_MODEL"`
	LLMTimeoutSecs int      `mapstructure:"LLM_TIMEOUT_SECS"`
	ActiveFeatures []string `mapstructure:"ACTIVE_FEATURES"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MODEL_PATH", "models/risk_model.json")
	v.SetDefault("ENCODER_PATH", "models/label_encoder.json")
	v.SetDefault("LLM_URL", "http://localhost:11434")
	v.SetDefault("LLM_MODEL", "medgemma")
	v.SetDefault("LLM_TIMEOUT_SECS", 120)
	v.SetDefault("ACTIVE_FEATURES", "age,body_temperature,oxygen_saturation,heart_rate,pain_level,chronic_disease_count")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("MODEL_PATH")
	v.BindEnv("ENCODER_PATH")
	v.BindEnv("LLM_URL")
	v.BindEnv("LLM_MODEL")
	v.BindEnv("LLM_TIMEOUT_SECS")
	v.BindEnv("ACTIVE_FEATURES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper splits comma lists but keeps surrounding whitespace.
	cfg.ActiveFeatures = trimList(cfg.ActiveFeatures)
	cfg.CORSOrigins = trimList(cfg.CORSOrigins)

	return cfg, nil
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMTimeout returns the narrative backend timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSecs) * time.Second
}

// Validate checks that the configuration is safe to run. Model artifact
// paths must be set, the LLM endpoint must parse as a URL, and the timeout
// must be positive.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.EncoderPath == "" {
		return fmt.Errorf("ENCODER_PATH is required")
	}
	if c.LLMURL == "" {
		return fmt.Errorf("LLM_URL is required")
	}
	if !strings.HasPrefix(c.LLMURL, "http://") && !strings.HasPrefix(c.LLMURL, "https://") {
		return fmt.Errorf("LLM_URL must be an http(s) URL, got %q", c.LLMURL)
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLMTimeoutSecs <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECS must be positive, got %d", c.LLMTimeoutSecs)
	}
	if len(c.ActiveFeatures) == 0 {
		return fmt.Errorf("ACTIVE_FEATURES must name at least one feature column")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimitRPS)
	}
	return nil
}
