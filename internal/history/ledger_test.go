package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-duel/backend/internal/models"
)

func result(ts int64, responseA string) models.ComparisonResult {
	return models.ComparisonResult{
		Prompt:    "prompt",
		ResponseA: responseA,
		ResponseB: "b",
		ConfigA:   models.DefaultConfigA(),
		ConfigB:   models.DefaultConfigB(),
		Analysis: &models.ComparisonAnalysis{
			Summary:        "s",
			KeyDifferences: []string{"one", "two", "three"},
		},
		Timestamp: ts,
	}
}

func TestNewEntry(t *testing.T) {
	responseA := strings.Repeat("相", 80)
	entry := NewEntry(result(1700000000000, responseA))

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, int64(1700000000000), entry.Timestamp)
	assert.Equal(t, "prompt", entry.Prompt)
	assert.Equal(t, strings.Repeat("相", 60)+"...", entry.Preview)
	assert.Equal(t, "Default vs Creative", entry.Label())

	short := NewEntry(result(1, "hi"))
	assert.Equal(t, "hi...", short.Preview)
	assert.NotEqual(t, entry.ID, short.ID)
}

func TestLedgerOrdering(t *testing.T) {
	l := NewLedger()
	for ts := int64(1); ts <= 5; ts++ {
		l.Append(NewEntry(result(ts, "a")))
		assert.Equal(t, ts, l.Entries()[0].Timestamp)
	}

	require.Equal(t, 5, l.Len())
	for ts := int64(1); ts <= 5; ts++ {
		e, err := l.FindByTimestamp(ts)
		require.NoError(t, err)
		assert.Equal(t, ts, e.Timestamp)
	}

	entries := l.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Timestamp, entries[i].Timestamp)
	}
}

func TestLedgerFindMissing(t *testing.T) {
	l := NewLedger()
	l.Append(NewEntry(result(1, "a")))

	_, err := l.FindByTimestamp(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerClear(t *testing.T) {
	l := NewLedger()
	l.Append(NewEntry(result(1, "a")))
	l.Append(NewEntry(result(2, "a")))

	assert.Equal(t, 2, l.Clear())
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Entries())
	assert.Zero(t, l.Clear())
}

func TestLedgerReturnsCopies(t *testing.T) {
	l := NewLedger()
	l.Append(NewEntry(result(1, "a")))

	found, err := l.FindByTimestamp(1)
	require.NoError(t, err)
	found.Result.ConfigA.Temperature = 1.9
	found.Result.Analysis.KeyDifferences[0] = "mutated"
	found.Result.Analysis.Summary = "mutated"

	listed := l.Entries()
	listed[0].Result.Analysis.KeyDifferences[1] = "mutated"

	stored, err := l.FindByTimestamp(1)
	require.NoError(t, err)
	assert.Equal(t, 0.7, stored.Result.ConfigA.Temperature)
	assert.Equal(t, "s", stored.Result.Analysis.Summary)
	assert.Equal(t, []string{"one", "two", "three"}, stored.Result.Analysis.KeyDifferences)
}
