package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/session"
)

type recordingWriter struct {
	events []wsEvent
}

func (w *recordingWriter) WriteJSON(v interface{}) error {
	w.events = append(w.events, v.(wsEvent))
	return nil
}

// quotaLimiter allows the first n calls per key.
type quotaLimiter struct {
	n    int
	seen map[string]int
}

func (l *quotaLimiter) Allow(key string) bool {
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[key]++
	return l.seen[key] <= l.n
}

type stubComparer struct {
	calls int
}

func (c *stubComparer) CompareWithProgress(_ context.Context, prompt string, configA, configB models.ModelConfiguration, progress comparison.ProgressFunc) (*models.ComparisonResult, error) {
	c.calls++
	if progress != nil {
		progress(comparison.StageGenerating)
	}
	return &models.ComparisonResult{
		Prompt:    prompt,
		ResponseA: "a",
		ResponseB: "b",
		ConfigA:   configA,
		ConfigB:   configB,
		Timestamp: int64(c.calls),
	}, nil
}

func TestCompareMessagesAreRateLimited(t *testing.T) {
	comparer := &stubComparer{}
	sess := session.New("ws-session", comparer, nil)
	limiter := &quotaLimiter{n: 2}
	h := NewWebSocketHandler(nil, limiter, 100)

	prompt := "Explain relativity"
	w := &recordingWriter{}
	for i := 0; i < 3; i++ {
		require.NoError(t, h.compare(w, "10.0.0.1", sess, wsRequest{Type: "compare", Prompt: &prompt}))
	}

	assert.Equal(t, 2, comparer.calls)
	assert.Equal(t, 2, sess.HistoryLen())

	last := w.events[len(w.events)-1]
	assert.Equal(t, "error", last.Type)
	assert.Equal(t, 429, last.Code)

	// Another caller has its own allowance.
	require.NoError(t, h.compare(w, "10.0.0.2", sess, wsRequest{Type: "compare"}))
	assert.Equal(t, 3, comparer.calls)
	assert.Equal(t, "complete", w.events[len(w.events)-1].Type)
}

func TestCompareWithoutLimiter(t *testing.T) {
	comparer := &stubComparer{}
	sess := session.New("ws-session", comparer, nil)
	h := NewWebSocketHandler(nil, nil, 100)

	w := &recordingWriter{}
	for i := 0; i < 5; i++ {
		require.NoError(t, h.compare(w, "", sess, wsRequest{Type: "compare"}))
	}
	assert.Equal(t, 5, comparer.calls)
}

func TestCompareRejectsLongPrompt(t *testing.T) {
	comparer := &stubComparer{}
	sess := session.New("ws-session", comparer, nil)
	h := NewWebSocketHandler(nil, nil, 5)

	prompt := "far too long"
	w := &recordingWriter{}
	require.NoError(t, h.compare(w, "", sess, wsRequest{Type: "compare", Prompt: &prompt}))

	require.Len(t, w.events, 1)
	assert.Equal(t, 413, w.events[0].Code)
	assert.Zero(t, comparer.calls)
}
