// Package bootstrap wires configured providers into a comparison
// orchestrator. Both the API server and the CLI start from here.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/llm-duel/backend/internal/analysis"
	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/generation"
	"github.com/llm-duel/backend/internal/llm"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/pkg/circuitbreaker"
	"github.com/llm-duel/backend/pkg/config"
)

const (
	GenerationBreaker = "generation"
	AnalysisBreaker   = "analysis"
)

// RecordBreakerState exports breaker transitions as a gauge.
func RecordBreakerState(name string, _, to circuitbreaker.State) {
	metrics.BreakerState.WithLabelValues(name).Set(float64(to))
}

// Orchestrator builds both providers, each behind its own breaker.
func Orchestrator(ctx context.Context, cfg *config.Config) (*comparison.Orchestrator, error) {
	genProvider, err := llm.New(ctx, cfg.Generation,
		llm.NewBreaker(GenerationBreaker, cfg.Breaker, RecordBreakerState))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation provider: %w", err)
	}

	analysisProvider, err := llm.New(ctx, cfg.Analysis,
		llm.NewBreaker(AnalysisBreaker, cfg.Breaker, RecordBreakerState))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis provider: %w", err)
	}

	return comparison.NewOrchestrator(
		generation.NewClient(genProvider, cfg.Generation.Language),
		analysis.NewClient(analysisProvider, cfg.Analysis.Temperature, cfg.Generation.Language),
	), nil
}
