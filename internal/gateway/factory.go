package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Provider is both a chat gateway and a one-shot completer.
type Provider interface {
	Gateway
	Completer
}

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
}

var defaultModels = map[string]string{
	providerGemini:    "gemini-2.5-flash",
	providerOpenAI:    "gpt-4o-mini",
	providerAnthropic: "claude-sonnet-4-5",
	providerOllama:    "llama3.1",
}

func (c Config) model(provider string) string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[provider]
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger.With("provider", strings.ToLower(c.Provider))
	}
	return slog.Default()
}

// New builds the provider named by cfg.Provider. Gemini is the default.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", providerGemini:
		cfg.Provider = providerGemini
		return NewGemini(ctx, cfg)
	case providerOpenAI:
		return NewOpenAI(cfg)
	case providerAnthropic:
		return NewAnthropic(cfg)
	case providerOllama:
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
