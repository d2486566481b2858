// Package comparison runs one comparison: two concurrent generations, a
// join, then a single analysis over both results.
package comparison

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/pkg/logger"
)

var (
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrComparisonFailed = errors.New("comparison failed")
)

// Generator produces the response text for one slot. It reports upstream
// failures inside the returned text.
type Generator interface {
	Generate(ctx context.Context, slot models.Slot, prompt string, cfg models.ModelConfiguration) string
}

// Analyzer scores both responses. It always returns an analysis, possibly
// the fallback one.
type Analyzer interface {
	Analyze(ctx context.Context, prompt, responseA, responseB, labelA, labelB string) models.ComparisonAnalysis
}

type Stage string

const (
	StageGenerating Stage = "generating"
	StageAnalyzing  Stage = "analyzing"
)

// ProgressFunc is told when a run enters a stage.
type ProgressFunc func(Stage)

type Option func(*Orchestrator)

// WithClock replaces time.Now for timestamping results.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

type Orchestrator struct {
	generator Generator
	analyzer  Analyzer
	now       func() time.Time

	mu            sync.Mutex
	lastTimestamp int64
}

func NewOrchestrator(generator Generator, analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		analyzer:  analyzer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Compare(ctx context.Context, prompt string, configA, configB models.ModelConfiguration) (*models.ComparisonResult, error) {
	return o.CompareWithProgress(ctx, prompt, configA, configB, nil)
}

// CompareWithProgress is Compare with stage notifications. configA and
// configB are copied on entry; later edits to the caller's values do not
// reach the result. Any fault outside the two clients' own recovery
// surfaces as ErrComparisonFailed and no result is returned.
func (o *Orchestrator) CompareWithProgress(ctx context.Context, prompt string, configA, configB models.ModelConfiguration, progress ProgressFunc) (result *models.ComparisonResult, err error) {
	if strings.TrimSpace(prompt) == "" {
		metrics.ComparisonsTotal.WithLabelValues(metrics.StatusRejected).Inc()
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Comparison panicked", zap.Any("panic", r))
			result, err = nil, fmt.Errorf("%w: %v", ErrComparisonFailed, r)
		}
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusFailed
		}
		metrics.ComparisonsTotal.WithLabelValues(status).Inc()
		metrics.ComparisonDuration.Observe(time.Since(start).Seconds())
	}()

	notify := func(s Stage) {
		if progress != nil {
			progress(s)
		}
	}

	logger.Info("Starting comparison",
		zap.String("persona_a", configA.Persona.String()),
		zap.String("persona_b", configB.Persona.String()),
		zap.Float64("temperature_a", configA.Temperature),
		zap.Float64("temperature_b", configB.Temperature),
	)

	notify(StageGenerating)
	responseA, responseB, err := o.generateBoth(ctx, prompt, configA, configB)
	if err != nil {
		return nil, err
	}

	notify(StageAnalyzing)
	analysis := o.analyzer.Analyze(ctx, prompt, responseA, responseB, configA.Label(), configB.Label())

	result = &models.ComparisonResult{
		Prompt:    prompt,
		ResponseA: responseA,
		ResponseB: responseB,
		ConfigA:   configA,
		ConfigB:   configB,
		Analysis:  &analysis,
		Timestamp: o.stamp(),
	}

	logger.Info("Comparison completed",
		zap.Int64("timestamp", result.Timestamp),
		zap.Bool("fallback", analysis.Fallback),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	return result, nil
}

// generateBoth fans out one generation per slot and joins on both.
func (o *Orchestrator) generateBoth(ctx context.Context, prompt string, configA, configB models.ModelConfiguration) (string, string, error) {
	var responseA, responseB string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.generate(gctx, models.SlotA, prompt, configA, &responseA)
	})
	g.Go(func() error {
		return o.generate(gctx, models.SlotB, prompt, configB, &responseB)
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return responseA, responseB, nil
}

func (o *Orchestrator) generate(ctx context.Context, slot models.Slot, prompt string, cfg models.ModelConfiguration, out *string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Generation panicked", zap.String("slot", string(slot)), zap.Any("panic", r))
			err = fmt.Errorf("%w: slot %s: %v", ErrComparisonFailed, slot, r)
		}
	}()

	*out = o.generator.Generate(ctx, slot, prompt, cfg)
	return nil
}

// stamp returns the current Unix millisecond time, bumped past the
// previous stamp so no two results share a timestamp.
func (o *Orchestrator) stamp() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	ts := o.now().UnixMilli()
	if ts <= o.lastTimestamp {
		ts = o.lastTimestamp + 1
	}
	o.lastTimestamp = ts
	return ts
}
