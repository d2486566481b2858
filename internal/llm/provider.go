// Package llm adapts upstream model services (Gemini, OpenAI-compatible
// endpoints) to the two calls a comparison needs: free-text generation
// and schema-constrained JSON generation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/llm-duel/backend/pkg/circuitbreaker"
	"github.com/llm-duel/backend/pkg/config"
	"github.com/llm-duel/backend/pkg/logger"
)

type TextRequest struct {
	SystemInstruction string
	Prompt            string
	Temperature       float32
}

type JSONRequest struct {
	Prompt string
	// SchemaName labels the schema for providers that require one.
	SchemaName string
	// Schema is a JSON Schema document the response must conform to.
	Schema      json.RawMessage
	Temperature float32
}

// Provider is one upstream model service. An empty string with a nil
// error means the upstream answered without content.
type Provider interface {
	Name() string
	Model() string
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)
}

// New builds the provider named in cfg and guards it with breaker when
// breaker is non-nil.
func New(ctx context.Context, cfg config.ProviderConfig, breaker *circuitbreaker.CircuitBreaker) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.Provider {
	case config.ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderOpenAI:
		p = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM provider initialized",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model()),
		zap.Bool("breaker", breaker != nil),
	)

	if breaker == nil {
		return p, nil
	}
	return WithBreaker(p, breaker), nil
}

// NewBreaker builds the circuit breaker configured for one provider role.
func NewBreaker(name string, cfg config.BreakerConfig, onStateChange func(name string, from, to circuitbreaker.State)) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(name, circuitbreaker.Config{
		FailureThreshold: cfg.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.OpenTimeoutSec) * time.Second,
		OnStateChange:    onStateChange,
		Logger:           logger.Named("breaker"),
	})
}

type guardedProvider struct {
	Provider
	cb *circuitbreaker.CircuitBreaker
}

// WithBreaker routes every call of p through cb.
func WithBreaker(p Provider, cb *circuitbreaker.CircuitBreaker) Provider {
	return &guardedProvider{Provider: p, cb: cb}
}

func (g *guardedProvider) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	var out string
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.Provider.GenerateText(ctx, req)
		return err
	})
	return out, err
}

func (g *guardedProvider) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	var out string
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.Provider.GenerateJSON(ctx, req)
		return err
	})
	return out, err
}
