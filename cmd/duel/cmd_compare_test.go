package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/llm-duel/backend/internal/analysis"
	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/generation"
	"github.com/llm-duel/backend/internal/llm"
	"github.com/llm-duel/backend/internal/llm/llmtest"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/persona"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/config"
)

const payload = `{
	"metricsA": {"creativity": 10, "conciseness": 90, "objectivity": 90, "technical_depth": 95, "positivity": 40},
	"metricsB": {"creativity": 60, "conciseness": 70, "objectivity": 20, "technical_depth": 50, "positivity": 10},
	"summary": "A is precise, B is skeptical.",
	"key_differences": ["depth", "tone", "focus"],
	"winner_reasoning": "A wins on rigor."
}`

// useFakes swaps the config loader and comparer factory for the duration
// of the test and returns the generation provider.
func useFakes(t *testing.T, analysisJSON string) *llmtest.Provider {
	t.Helper()

	gen := &llmtest.Provider{
		TextFunc: func(_ context.Context, req llm.TextRequest) (string, error) {
			return "answer for temperature " + jsonFloat(req.Temperature), nil
		},
	}
	an := &llmtest.Provider{
		JSONFunc: func(context.Context, llm.JSONRequest) (string, error) { return analysisJSON, nil },
	}

	origLoad, origNew := loadConfig, newComparer
	t.Cleanup(func() { loadConfig, newComparer = origLoad, origNew })

	loadConfig = func() (*config.Config, error) { return &config.Config{}, nil }
	newComparer = func(context.Context, *config.Config) (session.Comparer, error) {
		return comparison.NewOrchestrator(
			generation.NewClient(gen, ""),
			analysis.NewClient(an, analysis.DefaultTemperature, ""),
		), nil
	}
	return gen
}

func jsonFloat(f float32) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCompareJSON(t *testing.T) {
	gen := useFakes(t, payload)

	out, _, err := run(t, "compare", "--persona-a", "technical", "--temperature-a", "0.2",
		"--persona-b", "Critical Analysis (Skeptic)", "--temperature-b", "1.5", "-o", "json", "explain monads")
	require.NoError(t, err)

	var result models.ComparisonResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "explain monads", result.Prompt)
	assert.Equal(t, persona.Technical, result.ConfigA.Persona)
	assert.Equal(t, persona.Critic, result.ConfigB.Persona)
	assert.Equal(t, 0.2, result.ConfigA.Temperature)
	assert.Equal(t, "answer for temperature 0.2", result.ResponseA)
	assert.Equal(t, "answer for temperature 1.5", result.ResponseB)
	require.NotNil(t, result.Analysis)
	assert.Equal(t, "A wins on rigor.", result.Analysis.WinnerReasoning)
	assert.Len(t, gen.TextRequests(), 2)
}

func TestCompareYAML(t *testing.T) {
	useFakes(t, payload)

	out, _, err := run(t, "compare", "--quick", "3", "-o", "yaml")
	require.NoError(t, err)

	var result models.ComparisonResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, "分析远程工作的利弊", result.Prompt)
	assert.Equal(t, models.DefaultConfigB(), result.ConfigB)
}

func TestCompareText(t *testing.T) {
	useFakes(t, `not json`)

	out, stderr, err := run(t, "compare", "-p", "hello")
	require.NoError(t, err)

	assert.Contains(t, out, "Prompt: hello")
	assert.Contains(t, out, "== Model A (Default (Helpful Assistant)), temperature 0.7 ==")
	assert.Contains(t, out, "== Model B (Creative Writing (Expressive)), temperature 1.0 ==")
	assert.Contains(t, out, "(analysis unavailable, showing neutral scores)")
	assert.Contains(t, out, "Summary: "+analysis.FallbackSummary)
	assert.Contains(t, stderr, "generating...")
	assert.Contains(t, stderr, "analyzing...")
}

func TestCompareRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no prompt", []string{"compare"}, "a prompt is required"},
		{"blank prompt", []string{"compare", "   "}, "a prompt is required"},
		{"bad output", []string{"compare", "-o", "xml", "hi"}, "unsupported output"},
		{"quick out of range", []string{"compare", "--quick", "7"}, "--quick must be between 1 and 6"},
		{"bad temperature", []string{"compare", "--temperature-b", "3", "hi"}, "temperature must be within"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := useFakes(t, payload)
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestListCommands(t *testing.T) {
	out, _, err := run(t, "personas")
	require.NoError(t, err)
	assert.Contains(t, out, "eli5")
	assert.Contains(t, out, "Simple (Explain Like I'm 5)")

	out, _, err = run(t, "prompts")
	require.NoError(t, err)
	assert.Contains(t, out, "4. 如何用 Python 实现快速排序？")
}
