// Package history keeps the comparison runs of one session, most recent
// first.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/pkg/utils"
)

var ErrNotFound = errors.New("history entry not found")

// PreviewLength is the number of characters of response A kept in an
// entry's preview.
const PreviewLength = 60

// NewEntry builds the history record for a finished comparison. The
// result is copied so later edits by the caller do not reach the entry.
func NewEntry(result models.ComparisonResult) models.HistoryEntry {
	return models.HistoryEntry{
		ID:        uuid.New().String(),
		Timestamp: result.Timestamp,
		Prompt:    result.Prompt,
		Preview:   utils.Preview(result.ResponseA, PreviewLength),
		Result:    result.Clone(),
	}
}

// Ledger is unbounded; entries leave it only through Clear.
type Ledger struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append prepends entry.
func (l *Ledger) Append(entry models.HistoryEntry) {
	entry = entry.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, models.HistoryEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
}

// FindByTimestamp returns a copy of the entry created at ts.
func (l *Ledger) FindByTimestamp(ts int64) (models.HistoryEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.Timestamp == ts {
			return e.Clone(), nil
		}
	}
	return models.HistoryEntry{}, fmt.Errorf("%w: timestamp %d", ErrNotFound, ts)
}

// Clear empties the ledger and reports how many entries were dropped.
// Confirmation is the caller's job.
func (l *Ledger) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	l.entries = nil
	return n
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns copies of all entries, most recent first.
func (l *Ledger) Entries() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HistoryEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}
