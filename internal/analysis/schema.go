package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	SchemaName = "ComparisonAnalysis"

	MinKeyDifferences = 3
	MaxKeyDifferences = 5
)

var printer = message.NewPrinter(language.English)

var metricNames = []string{"creativity", "conciseness", "objectivity", "technical_depth", "positivity"}

// RequestSchema is sent upstream to constrain generation. It carries the
// full contract, including score ranges and the 3-5 difference count.
var RequestSchema = mustMarshal(schemaDocument(true))

// validator checks returned payloads. It is looser than RequestSchema:
// scores outside [0, 100] are clamped afterwards, and any non-empty list
// of differences is accepted.
var validator = mustCompile(schemaDocument(false))

func schemaDocument(upstream bool) map[string]any {
	metrics := func(side string) map[string]any {
		props := make(map[string]any, len(metricNames))
		for _, name := range metricNames {
			score := map[string]any{"type": "number", "description": "Score 0-100"}
			if upstream {
				score["minimum"] = 0
				score["maximum"] = 100
			}
			props[name] = score
		}
		return map[string]any{
			"type":        "object",
			"description": "Scores for model " + side,
			"properties":  props,
			"required":    metricNames,
		}
	}

	differences := map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": fmt.Sprintf("List of %d-%d key differences between the responses.", MinKeyDifferences, MaxKeyDifferences),
		"minItems":    1,
	}
	if upstream {
		differences["minItems"] = MinKeyDifferences
		differences["maxItems"] = MaxKeyDifferences
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"metricsA":        metrics("A"),
			"metricsB":        metrics("B"),
			"summary":         map[string]any{"type": "string", "description": "A brief summary of the main differences."},
			"key_differences": differences,
			"winner_reasoning": map[string]any{
				"type":        "string",
				"description": "A neutral observation of which model might be better for which context.",
			},
		},
		"required": []string{"metricsA", "metricsB", "summary", "key_differences", "winner_reasoning"},
	}
}

func mustMarshal(doc map[string]any) json.RawMessage {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal analysis schema: %v", err))
	}
	return raw
}

func mustCompile(doc map[string]any) *jsonschema.Schema {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(mustMarshal(doc)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse analysis schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add analysis schema resource: %v", err))
	}

	sch, err := compiler.Compile("analysis.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile analysis schema: %v", err))
	}
	return sch
}

// validate checks raw against the payload schema and returns the
// instance locations that failed.
func validate(raw string) error {
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := validator.Validate(inst); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return fmt.Errorf("schema: %w", err)
		}
		return fmt.Errorf("schema violation: %s", strings.Join(collectFailures(ve), "; "))
	}
	return nil
}

func collectFailures(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer))}
	}
	var out []string
	for _, cause := range ve.Causes {
		out = append(out, collectFailures(cause)...)
	}
	return out
}
