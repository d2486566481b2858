// Package generation issues one prompt with one model configuration to
// the text-generation provider.
package generation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/llm"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/persona"
	"github.com/llm-duel/backend/pkg/logger"
)

const (
	// ErrorPrefix starts every sentinel failure text.
	ErrorPrefix = "Error: unable to generate response."
	// EmptyResponse replaces a missing or empty upstream body.
	EmptyResponse = "No response generated."
)

type Client struct {
	provider llm.Provider
	language string
}

// NewClient returns a client that steers provider with persona
// instructions. A non-empty language adds an instruction to always answer
// in that language.
func NewClient(provider llm.Provider, language string) *Client {
	return &Client{
		provider: provider,
		language: strings.TrimSpace(language),
	}
}

// Generate never returns an error: upstream failures come back as text
// starting with ErrorPrefix so both comparison slots always hold a string.
func (c *Client) Generate(ctx context.Context, slot models.Slot, prompt string, cfg models.ModelConfiguration) string {
	start := time.Now()

	text, err := c.provider.GenerateText(ctx, llm.TextRequest{
		SystemInstruction: c.SystemInstruction(cfg.Persona),
		Prompt:            prompt,
		Temperature:       float32(min(max(cfg.Temperature, models.MinTemperature), models.MaxTemperature)),
	})

	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(string(slot), c.provider.Name()).Observe(elapsed.Seconds())

	if err != nil {
		metrics.GenerationFailures.WithLabelValues(string(slot)).Inc()
		logger.Error("Generation failed",
			zap.String("slot", string(slot)),
			zap.String("model_name", cfg.Name),
			zap.String("persona", cfg.Persona.String()),
			zap.String("provider", c.provider.Name()),
			zap.Error(err),
		)
		return ErrorPrefix + " " + err.Error()
	}

	logger.Debug("Generation completed",
		zap.String("slot", string(slot)),
		zap.String("persona", cfg.Persona.String()),
		zap.Int("response_length", len(text)),
		zap.Int64("latency_ms", elapsed.Milliseconds()),
	)

	if strings.TrimSpace(text) == "" {
		return EmptyResponse
	}
	return text
}

// SystemInstruction is the persona instruction plus the language directive.
func (c *Client) SystemInstruction(p persona.Persona) string {
	instruction := persona.Instruction(p)
	if c.language == "" {
		return instruction
	}
	return instruction + " Always answer in " + c.language + "."
}

// IsFailure reports whether text is a sentinel failure produced by Generate.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}
