package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/llm-duel/backend/pkg/circuitbreaker"
	"github.com/llm-duel/backend/pkg/config"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"notes": {"type": "array", "items": {"type": "string"}, "minItems": 1}
	},
	"required": ["score", "notes"]
}`

func TestOpenAIProviderGenerateText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-test")
	out, err := p.GenerateText(context.Background(), TextRequest{
		SystemInstruction: "be brief",
		Prompt:            "hi",
		Temperature:       0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, "gpt-test", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "be brief", messages[0].(map[string]any)["content"])
	assert.Equal(t, "hi", messages[1].(map[string]any)["content"])
}

func TestOpenAIProviderSendsZeroTemperature(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		bodies = append(bodies, got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"{}"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-test")
	_, err := p.GenerateText(context.Background(), TextRequest{Prompt: "hi", Temperature: 0})
	require.NoError(t, err)
	_, err = p.GenerateJSON(context.Background(), JSONRequest{
		Prompt:     "rate it",
		SchemaName: "rating",
		Schema:     json.RawMessage(testSchema),
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	for _, got := range bodies {
		require.Contains(t, got, "temperature")
		assert.InDelta(t, 0, got["temperature"], 1e-6)
	}
}

func TestOpenAIProviderGenerateJSONSendsSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"score\":1}"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-test")
	out, err := p.GenerateJSON(context.Background(), JSONRequest{
		Prompt:      "rate it",
		SchemaName:  "rating",
		Schema:      json.RawMessage(testSchema),
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":1}`, out)

	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	js := format["json_schema"].(map[string]any)
	assert.Equal(t, "rating", js["name"])
	assert.Contains(t, js["schema"].(map[string]any), "properties")
}

func TestOpenAIProviderEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	out, err := NewOpenAIProvider("k", srv.URL+"/v1", "m").GenerateText(context.Background(), TextRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAIProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("k", srv.URL+"/v1", "m").GenerateText(context.Background(), TextRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestGeminiProviderGenerateText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"bonjour"}]}}]}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "test-key", srv.URL, "gemini-test")
	require.NoError(t, err)

	out, err := p.GenerateText(context.Background(), TextRequest{SystemInstruction: "be kind", Prompt: "hello", Temperature: 1})
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
	assert.Contains(t, got, "systemInstruction")
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "", "gemini-test")
	require.Error(t, err)
}

func TestToGenAISchema(t *testing.T) {
	s, err := toGenAISchema(json.RawMessage(testSchema))
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"score", "notes"}, s.Required)
	assert.Equal(t, []string{"score", "notes"}, s.PropertyOrdering)
	require.Contains(t, s.Properties, "score")
	assert.Equal(t, genai.TypeNumber, s.Properties["score"].Type)
	assert.Equal(t, 100.0, *s.Properties["score"].Maximum)
	assert.Equal(t, genai.TypeArray, s.Properties["notes"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["notes"].Items.Type)
	assert.Equal(t, int64(1), *s.Properties["notes"].MinItems)

	_, err = toGenAISchema(json.RawMessage(`{"type":"tuple"}`))
	require.Error(t, err)
}

type stubProvider struct {
	err   error
	calls int
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-1" }
func (s *stubProvider) GenerateText(context.Context, TextRequest) (string, error) {
	s.calls++
	return "text", s.err
}
func (s *stubProvider) GenerateJSON(context.Context, JSONRequest) (string, error) {
	s.calls++
	return "{}", s.err
}

func TestWithBreakerFailsFastWhenOpen(t *testing.T) {
	stub := &stubProvider{err: errors.New("503")}
	p := WithBreaker(stub, NewBreaker("generation", config.BreakerConfig{FailureThreshold: 2, OpenTimeoutSec: 60}, nil))
	ctx := context.Background()

	_, err := p.GenerateText(ctx, TextRequest{})
	require.Error(t, err)
	_, err = p.GenerateJSON(ctx, JSONRequest{})
	require.Error(t, err)

	_, err = p.GenerateText(ctx, TextRequest{})
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, "stub", p.Name())
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), config.ProviderConfig{Provider: "bard"}, nil)
	require.Error(t, err)
}

func TestNewOpenAI(t *testing.T) {
	p, err := New(context.Background(), config.ProviderConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o-mini", p.Model())
}
