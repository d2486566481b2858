package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/textstats"
	"github.com/llm-duel/backend/pkg/logger"
)

type renderFunc func(w io.Writer, result *models.ComparisonResult) error

func renderer(format string) (renderFunc, error) {
	switch format {
	case "text":
		return renderText, nil
	case "json":
		return renderJSON, nil
	case "yaml":
		return renderYAML, nil
	}
	return nil, fmt.Errorf("unsupported output %q: must be text, json or yaml", format)
}

func renderJSON(w io.Writer, result *models.ComparisonResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func renderYAML(w io.Writer, result *models.ComparisonResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

func renderText(w io.Writer, result *models.ComparisonResult) error {
	fmt.Fprintf(w, "Prompt: %s\n\n", result.Prompt)

	writeResponse(w, result.ConfigA, result.ResponseA)
	writeResponse(w, result.ConfigB, result.ResponseB)

	a := result.Analysis
	if a == nil {
		return nil
	}

	fmt.Fprintln(w, "== Analysis ==")
	if a.Fallback {
		fmt.Fprintln(w, "(analysis unavailable, showing neutral scores)")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tMODEL A\tMODEL B")
	for _, p := range a.ChartData() {
		fmt.Fprintf(tw, "%s\t%.0f\t%.0f\n", p.Metric, p.ModelA, p.ModelB)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSummary: %s\n", a.Summary)
	fmt.Fprintln(w, "Key differences:")
	for _, d := range a.KeyDifferences {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	fmt.Fprintf(w, "Verdict: %s\n", a.WinnerReasoning)
	return nil
}

func writeResponse(w io.Writer, cfg models.ModelConfiguration, text string) {
	fmt.Fprintf(w, "== %s, temperature %.1f ==\n", cfg.Label(), cfg.Temperature)
	fmt.Fprintln(w, strings.TrimRight(text, "\n"))

	stats, err := textstats.Compute(text)
	if err != nil {
		logger.Warn("Failed to compute response stats", zap.Error(err))
	}
	fmt.Fprintf(w, "[%d chars, %d words, %d sentences, ~%d min read]\n\n",
		stats.Characters, stats.Words, stats.Sentences, stats.ReadMinutes)
}
