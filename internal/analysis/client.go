// Package analysis asks the schema-constrained provider to score two
// responses side by side and turns whatever comes back into a valid
// ComparisonAnalysis.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/llm"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/pkg/logger"
)

const (
	FallbackSummary         = "Failed to generate the analysis report."
	FallbackKeyDifference   = "An error occurred while analyzing the responses."
	FallbackWinnerReasoning = "N/A"

	DefaultTemperature = 0.2
)

// Fallback is the neutral analysis used whenever the real one cannot be
// obtained. Every call returns a fresh value.
func Fallback() models.ComparisonAnalysis {
	return models.ComparisonAnalysis{
		Summary:         FallbackSummary,
		KeyDifferences:  []string{FallbackKeyDifference},
		WinnerReasoning: FallbackWinnerReasoning,
		Fallback:        true,
	}
}

type Client struct {
	provider    llm.Provider
	temperature float32
	language    string
}

func NewClient(provider llm.Provider, temperature float32, language string) *Client {
	return &Client{
		provider:    provider,
		temperature: temperature,
		language:    strings.TrimSpace(language),
	}
}

// Analyze makes a single attempt and never fails: transport errors,
// invalid JSON and schema violations all yield Fallback().
func (c *Client) Analyze(ctx context.Context, prompt, responseA, responseB, labelA, labelB string) (result models.ComparisonAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Analysis panicked, using fallback", zap.Any("panic", r))
			metrics.AnalysisTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
			result = Fallback()
		}
	}()

	raw, err := c.provider.GenerateJSON(ctx, llm.JSONRequest{
		Prompt:      c.BuildPrompt(prompt, responseA, responseB, labelA, labelB),
		SchemaName:  SchemaName,
		Schema:      RequestSchema,
		Temperature: c.temperature,
	})
	if err != nil {
		return c.fallback("upstream call failed", err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		return c.fallback("payload rejected", err)
	}

	metrics.AnalysisTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return parsed
}

func (c *Client) fallback(reason string, err error) models.ComparisonAnalysis {
	logger.Warn("Analysis fell back to neutral result",
		zap.String("reason", reason),
		zap.String("provider", c.provider.Name()),
		zap.Bool("fallback", true),
		zap.Error(err),
	)
	metrics.AnalysisTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
	return Fallback()
}

// BuildPrompt renders the three-way comparison request.
func (c *Client) BuildPrompt(prompt, responseA, responseB, labelA, labelB string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following two AI responses to the user prompt: %q.\n\n", prompt)
	fmt.Fprintf(&b, "Response A, from %s:\n%s\n\n", labelA, responseA)
	fmt.Fprintf(&b, "Response B, from %s:\n%s\n\n", labelB, responseB)
	b.WriteString("Compare them quantitatively and qualitatively. ")
	b.WriteString("Score each model from 0 to 100 on creativity, conciseness, objectivity, technical_depth and positivity. ")
	fmt.Fprintf(&b, "List %d to %d key differences. Return JSON.", MinKeyDifferences, MaxKeyDifferences)
	if c.language != "" {
		fmt.Fprintf(&b, " Write summary, key_differences and winner_reasoning in %s.", c.language)
	}
	return b.String()
}

// Parse validates raw against the analysis schema and normalizes it:
// scores are clamped into [0, 100] and differences beyond the fifth are
// dropped. A Markdown code fence around the JSON is tolerated.
func Parse(raw string) (models.ComparisonAnalysis, error) {
	raw = stripCodeFence(raw)
	if raw == "" {
		return models.ComparisonAnalysis{}, fmt.Errorf("empty payload")
	}

	if err := validate(raw); err != nil {
		return models.ComparisonAnalysis{}, err
	}

	var a models.ComparisonAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return models.ComparisonAnalysis{}, fmt.Errorf("failed to decode analysis: %w", err)
	}

	a.MetricsA = a.MetricsA.Clamp()
	a.MetricsB = a.MetricsB.Clamp()
	if len(a.KeyDifferences) > MaxKeyDifferences {
		a.KeyDifferences = a.KeyDifferences[:MaxKeyDifferences]
	}
	a.Fallback = false

	return a, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
