package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("MODEL_PATH")
	os.Unsetenv("LLM_TIMEOUT_SECS")
	os.Unsetenv("ACTIVE_FEATURES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.ModelPath != "models/risk_model.json" {
		t.Errorf("expected default model path, got %s", cfg.ModelPath)
	}
	if cfg.LLMTimeoutSecs != 120 {
		t.Errorf("expected default timeout 120, got %d", cfg.LLMTimeoutSecs)
	}
	if len(cfg.ActiveFeatures) != 6 {
		t.Errorf("expected 6 default active features, got %v", cfg.ActiveFeatures)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	os.Setenv("LLM_MODEL", "medgemma:4b")
	os.Setenv("ACTIVE_FEATURES", "age, pain_level")
	defer os.Unsetenv("LLM_MODEL")
	defer os.Unsetenv("ACTIVE_FEATURES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLMModel != "medgemma:4b" {
		t.Errorf("expected LLM_MODEL override, got %s", cfg.LLMModel)
	}
	if len(cfg.ActiveFeatures) != 2 || cfg.ActiveFeatures[1] != "pain_level" {
		t.Errorf("expected trimmed feature list, got %v", cfg.ActiveFeatures)
	}
}

func TestConfig_LLMTimeout(t *testing.T) {
	c := &Config{LLMTimeoutSecs: 30}
	if c.LLMTimeout() != 30*time.Second {
		t.Errorf("expected 30s, got %v", c.LLMTimeout())
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ModelPath:      "models/risk_model.json",
			EncoderPath:    "models/label_encoder.json",
			LLMURL:         "http://localhost:11434",
			LLMModel:       "medgemma",
			LLMTimeoutSecs: 120,
			ActiveFeatures: []string{"age"},
			RateLimitRPS:   100,
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing model path", func(c *Config) { c.ModelPath = "" }},
		{"missing encoder path", func(c *Config) { c.EncoderPath = "" }},
		{"missing llm url", func(c *Config) { c.LLMURL = "" }},
		{"non-http llm url", func(c *Config) { c.LLMURL = "localhost:11434" }},
		{"missing llm model", func(c *Config) { c.LLMModel = "" }},
		{"zero timeout", func(c *Config) { c.LLMTimeoutSecs = 0 }},
		{"empty active features", func(c *Config) { c.ActiveFeatures = nil }},
		{"zero rate limit", func(c *Config) { c.RateLimitRPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}
