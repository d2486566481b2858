// Package llmtest provides an in-memory llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/llm-duel/backend/internal/llm"
)

// Provider records every request and answers through the configured
// funcs. A nil func answers with an empty string.
type Provider struct {
	TextFunc func(ctx context.Context, req llm.TextRequest) (string, error)
	JSONFunc func(ctx context.Context, req llm.JSONRequest) (string, error)

	mu           sync.Mutex
	textRequests []llm.TextRequest
	jsonRequests []llm.JSONRequest
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string  { return "fake" }
func (p *Provider) Model() string { return "fake-1" }

func (p *Provider) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	p.mu.Lock()
	p.textRequests = append(p.textRequests, req)
	p.mu.Unlock()

	if p.TextFunc == nil {
		return "", nil
	}
	return p.TextFunc(ctx, req)
}

func (p *Provider) GenerateJSON(ctx context.Context, req llm.JSONRequest) (string, error) {
	p.mu.Lock()
	p.jsonRequests = append(p.jsonRequests, req)
	p.mu.Unlock()

	if p.JSONFunc == nil {
		return "", nil
	}
	return p.JSONFunc(ctx, req)
}

func (p *Provider) TextRequests() []llm.TextRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.TextRequest(nil), p.textRequests...)
}

func (p *Provider) JSONRequests() []llm.JSONRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.JSONRequest(nil), p.jsonRequests...)
}

// Calls is the total number of requests of either kind.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.textRequests) + len(p.jsonRequests)
}
