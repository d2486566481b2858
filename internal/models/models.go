package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/llm-duel/backend/internal/persona"
)

var (
	ErrInvalidTemperature = errors.New("temperature must be within [0.0, 2.0]")
	ErrUnknownSlot        = errors.New("unknown model slot")
)

const (
	MinTemperature = 0.0
	MaxTemperature = 2.0

	MetricFullMark = 100.0
)

// Slot identifies one side of a comparison.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

func ParseSlot(s string) (Slot, error) {
	switch s {
	case "A", "a":
		return SlotA, nil
	case "B", "b":
		return SlotB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

type ModelConfiguration struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Persona     persona.Persona `json:"persona" yaml:"persona"`
	Temperature float64         `json:"temperature" yaml:"temperature"`
}

func DefaultConfigA() ModelConfiguration {
	return ModelConfiguration{ID: "model_a", Name: "Model A", Persona: persona.Default, Temperature: 0.7}
}

func DefaultConfigB() ModelConfiguration {
	return ModelConfiguration{ID: "model_b", Name: "Model B", Persona: persona.Creative, Temperature: 1.0}
}

func (c ModelConfiguration) Validate() error {
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: got %v", ErrInvalidTemperature, c.Temperature)
	}
	return nil
}

// Label is the "name (persona)" string handed to the analysis prompt.
func (c ModelConfiguration) Label() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Persona.DisplayName())
}

type AnalysisMetrics struct {
	Creativity     float64 `json:"creativity" yaml:"creativity"`
	Conciseness    float64 `json:"conciseness" yaml:"conciseness"`
	Objectivity    float64 `json:"objectivity" yaml:"objectivity"`
	TechnicalDepth float64 `json:"technical_depth" yaml:"technical_depth"`
	Positivity     float64 `json:"positivity" yaml:"positivity"`
}

// Clamp pins every score into [0, MetricFullMark].
func (m AnalysisMetrics) Clamp() AnalysisMetrics {
	return AnalysisMetrics{
		Creativity:     clamp(m.Creativity),
		Conciseness:    clamp(m.Conciseness),
		Objectivity:    clamp(m.Objectivity),
		TechnicalDepth: clamp(m.TechnicalDepth),
		Positivity:     clamp(m.Positivity),
	}
}

func (m AnalysisMetrics) IsZero() bool {
	return m == AnalysisMetrics{}
}

func clamp(v float64) float64 {
	return min(max(v, 0), MetricFullMark)
}

type ComparisonAnalysis struct {
	MetricsA        AnalysisMetrics `json:"metricsA" yaml:"metricsA"`
	MetricsB        AnalysisMetrics `json:"metricsB" yaml:"metricsB"`
	Summary         string          `json:"summary" yaml:"summary"`
	KeyDifferences  []string        `json:"key_differences" yaml:"key_differences"`
	WinnerReasoning string          `json:"winner_reasoning" yaml:"winner_reasoning"`
	// Fallback is set when the analysis call failed or returned a payload
	// that did not validate.
	Fallback bool `json:"fallback" yaml:"fallback"`
}

func (a ComparisonAnalysis) Clone() ComparisonAnalysis {
	a.KeyDifferences = slices.Clone(a.KeyDifferences)
	return a
}

// ChartPoint is one axis of the radar/bar chart.
type ChartPoint struct {
	Metric   string  `json:"metric"`
	ModelA   float64 `json:"modelA"`
	ModelB   float64 `json:"modelB"`
	FullMark float64 `json:"fullMark"`
}

func (a ComparisonAnalysis) ChartData() []ChartPoint {
	point := func(name string, va, vb float64) ChartPoint {
		return ChartPoint{Metric: name, ModelA: va, ModelB: vb, FullMark: MetricFullMark}
	}
	return []ChartPoint{
		point("Creativity", a.MetricsA.Creativity, a.MetricsB.Creativity),
		point("Conciseness", a.MetricsA.Conciseness, a.MetricsB.Conciseness),
		point("Objectivity", a.MetricsA.Objectivity, a.MetricsB.Objectivity),
		point("Technical Depth", a.MetricsA.TechnicalDepth, a.MetricsB.TechnicalDepth),
		point("Positivity", a.MetricsA.Positivity, a.MetricsB.Positivity),
	}
}

// ComparisonResult is the record of one comparison run. Timestamp is Unix
// milliseconds and is unique within a session.
type ComparisonResult struct {
	Prompt    string              `json:"prompt" yaml:"prompt"`
	ResponseA string              `json:"responseA" yaml:"responseA"`
	ResponseB string              `json:"responseB" yaml:"responseB"`
	ConfigA   ModelConfiguration  `json:"configA" yaml:"configA"`
	ConfigB   ModelConfiguration  `json:"configB" yaml:"configB"`
	Analysis  *ComparisonAnalysis `json:"analysis" yaml:"analysis"`
	Timestamp int64               `json:"timestamp" yaml:"timestamp"`
}

// Clone returns a copy that shares no mutable state with r.
func (r ComparisonResult) Clone() ComparisonResult {
	if r.Analysis != nil {
		a := r.Analysis.Clone()
		r.Analysis = &a
	}
	return r
}

type HistoryEntry struct {
	ID        string           `json:"id"`
	Timestamp int64            `json:"timestamp"`
	Prompt    string           `json:"prompt"`
	Preview   string           `json:"preview"`
	Result    ComparisonResult `json:"result"`
}

// Label summarizes the personas compared, e.g. "Default vs Creative".
func (e HistoryEntry) Label() string {
	return e.Result.ConfigA.Persona.ShortName() + " vs " + e.Result.ConfigB.Persona.ShortName()
}

func (e HistoryEntry) Clone() HistoryEntry {
	e.Result = e.Result.Clone()
	return e
}
