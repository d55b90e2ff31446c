// Package config loads service settings from an optional YAML file and the
// environment. Environment variables (including a .env file) win over the
// file, and the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	Store  StoreConfig  `yaml:"store"`
	LLM    LLMConfig    `yaml:"llm"`
	Agent  AgentConfig  `yaml:"agent"`
	Places PlacesConfig `yaml:"places"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"` // postgres|sqlite
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"` // gemini|openai|anthropic|ollama
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type AgentConfig struct {
	SystemPrompt    string `yaml:"system_prompt"`
	MaxIterations   int    `yaml:"max_iterations"`
	HistoryLimit    int    `yaml:"history_limit"`
	ToolConcurrency int    `yaml:"tool_concurrency"`
}

type PlacesConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:    "8080",
		GinMode: "release",
		Store: StoreConfig{
			Driver:     "postgres",
			SQLitePath: "healthmate.db",
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0.5,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			MaxIterations:   6,
			HistoryLimit:    10,
			ToolConcurrency: 4,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads .env, then the YAML file at path when path is non-empty, then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DatabaseURL = getEnv("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	switch c.LLM.Provider {
	case "gemini":
		c.LLM.APIKey = getEnv("GEMINI_API_KEY", c.LLM.APIKey)
	case "openai":
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
		c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	case "anthropic":
		c.LLM.APIKey = getEnv("ANTHROPIC_API_KEY", c.LLM.APIKey)
		c.LLM.BaseURL = getEnv("ANTHROPIC_BASE_URL", c.LLM.BaseURL)
	case "ollama":
		c.LLM.BaseURL = getEnv("OLLAMA_URL", c.LLM.BaseURL)
	}

	c.Places.APIKey = getEnv("SERPAPI_KEY", c.Places.APIKey)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	var errs []error
	var err error
	if c.LLM.Temperature, err = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.MaxTokens, err = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens); err != nil {
		errs = append(errs, err)
	}
	if c.Agent.MaxIterations, err = getEnvInt("AGENT_MAX_ITERATIONS", c.Agent.MaxIterations); err != nil {
		errs = append(errs, err)
	}
	if c.Agent.HistoryLimit, err = getEnvInt("AGENT_HISTORY_LIMIT", c.Agent.HistoryLimit); err != nil {
		errs = append(errs, err)
	}
	if c.Agent.ToolConcurrency, err = getEnvInt("AGENT_TOOL_CONCURRENCY", c.Agent.ToolConcurrency); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q (valid: postgres, sqlite)", c.Store.Driver))
	}

	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("an API key is required for provider %s", c.LLM.Provider))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q (valid: gemini, openai, anthropic, ollama)", c.LLM.Provider))
	}

	if c.Agent.MaxIterations < 1 {
		errs = append(errs, errors.New("agent max_iterations must be at least 1"))
	}
	if c.Agent.ToolConcurrency < 1 {
		errs = append(errs, errors.New("agent tool_concurrency must be at least 1"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (valid: text, json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
