package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		MaxLives          int    `yaml:"max_lives"`
		QuestionsPerRound int    `yaml:"questions_per_round"`
		AutoEndDelay      string `yaml:"auto_end_delay"`
		LoadTimeout       string `yaml:"load_timeout"`
		EnforceUnlocks    bool   `yaml:"enforce_unlocks"`
	} `yaml:"quiz"`
	Generator struct {
		Provider      string  `yaml:"provider"`
		APIKey        string  `yaml:"api_key"`
		Model         string  `yaml:"model"`
		BaseURL       string  `yaml:"base_url"`
		Timeout       string  `yaml:"timeout"`
		CacheTTL      string  `yaml:"cache_ttl"`
		StrictSets    bool    `yaml:"strict_sets"`
		Temperature   float64 `yaml:"temperature"`
		StaticPayload string  `yaml:"static_payload"`
	} `yaml:"generator"`
}

// Load reads YAML config from path. GEMINI_API_KEY overrides generator.api_key.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Generator.APIKey = key
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = ProviderGemini
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
