// Package session holds the editable working state of one user: the
// prompt, both model configurations, the current result and the history
// ledger. The comparison core itself keeps no state between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/guard"
	"github.com/llm-duel/backend/internal/history"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/pkg/logger"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrRunInProgress     = errors.New("a comparison is already running for this session")
	ErrClearNotConfirmed = errors.New("clearing history requires confirmation")
)

// Comparer runs one comparison over snapshots of the working state.
type Comparer interface {
	CompareWithProgress(ctx context.Context, prompt string, configA, configB models.ModelConfiguration, progress comparison.ProgressFunc) (*models.ComparisonResult, error)
}

type Session struct {
	id        string
	createdAt time.Time
	comparer  Comparer
	guard     guard.Guard
	ledger    *history.Ledger

	mu      sync.RWMutex
	prompt  string
	configA models.ModelConfiguration
	configB models.ModelConfiguration
	current *models.ComparisonResult
	running bool
}

// Snapshot is a read-only copy of a session for presentation.
type Snapshot struct {
	ID        string                    `json:"id"`
	CreatedAt time.Time                 `json:"createdAt"`
	Prompt    string                    `json:"prompt"`
	ConfigA   models.ModelConfiguration `json:"configA"`
	ConfigB   models.ModelConfiguration `json:"configB"`
	Current   *models.ComparisonResult  `json:"current,omitempty"`
	Chart     []models.ChartPoint       `json:"chart,omitempty"`
	History   []models.HistoryEntry     `json:"history"`
	Running   bool                      `json:"running"`
}

// New returns a session with the default configurations. A nil guard
// means an in-process one.
func New(id string, comparer Comparer, g guard.Guard) *Session {
	if g == nil {
		g = guard.NewMemory()
	}
	return &Session{
		id:        id,
		createdAt: time.Now(),
		comparer:  comparer,
		guard:     g,
		ledger:    history.NewLedger(),
		configA:   models.DefaultConfigA(),
		configB:   models.DefaultConfigB(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// UpdateConfig replaces the configuration of one slot. The slot keeps its
// identifier; an unknown persona falls back to the default one.
func (s *Session) UpdateConfig(slot models.Slot, cfg models.ModelConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Persona = cfg.Persona.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch slot {
	case models.SlotA:
		cfg.ID = s.configA.ID
		if cfg.Name == "" {
			cfg.Name = s.configA.Name
		}
		s.configA = cfg
	case models.SlotB:
		cfg.ID = s.configB.ID
		if cfg.Name == "" {
			cfg.Name = s.configB.Name
		}
		s.configB = cfg
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownSlot, slot)
	}
	return nil
}

// Run compares the current prompt under the current configurations. Only
// one run per session may be outstanding; a second one gets
// ErrRunInProgress. On success the result becomes current and is
// prepended to the history. Failed runs leave the history untouched.
func (s *Session) Run(ctx context.Context, progress comparison.ProgressFunc) (*models.ComparisonResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		metrics.ComparisonsTotal.WithLabelValues(metrics.StatusBusy).Inc()
		return nil, ErrRunInProgress
	}
	s.running = true
	prompt, configA, configB := s.prompt, s.configA, s.configB
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	// The in-process flag above is authoritative; the guard adds exclusion
	// across replicas and may expire while a run is still outstanding.
	release, err := s.guard.Acquire(ctx, s.id)
	if err != nil {
		if errors.Is(err, guard.ErrHeld) {
			metrics.ComparisonsTotal.WithLabelValues(metrics.StatusBusy).Inc()
			return nil, ErrRunInProgress
		}
		return nil, err
	}
	defer release()

	result, err := s.comparer.CompareWithProgress(ctx, prompt, configA, configB, progress)
	if err != nil {
		logger.Warn("Comparison run failed", zap.String("session_id", s.id), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	current := result.Clone()
	s.current = &current
	s.ledger.Append(history.NewEntry(*result))
	s.mu.Unlock()

	metrics.HistoryEntries.Inc()

	out := result.Clone()
	return &out, nil
}

// Select restores the prompt, configurations and result of the history
// entry created at ts. The restored values are copies: editing them does
// not alter the stored entry.
func (s *Session) Select(ts int64) (Snapshot, error) {
	entry, err := s.ledger.FindByTimestamp(ts)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.prompt = entry.Prompt
	s.configA = entry.Result.ConfigA
	s.configB = entry.Result.ConfigB
	s.current = &entry.Result
	s.mu.Unlock()

	return s.Snapshot(), nil
}

// ClearHistory empties the history when confirm is true and returns the
// number of entries removed. The current result stays on screen.
func (s *Session) ClearHistory(confirm bool) (int, error) {
	if !confirm {
		return 0, ErrClearNotConfirmed
	}

	n := s.ledger.Clear()
	metrics.HistoryEntries.Sub(float64(n))

	logger.Info("History cleared", zap.String("session_id", s.id), zap.Int("entries", n))
	return n, nil
}

func (s *Session) History() []models.HistoryEntry {
	return s.ledger.Entries()
}

func (s *Session) HistoryLen() int {
	return s.ledger.Len()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Prompt:    s.prompt,
		ConfigA:   s.configA,
		ConfigB:   s.configB,
		History:   s.ledger.Entries(),
		Running:   s.running,
	}
	if s.current != nil {
		current := s.current.Clone()
		snap.Current = &current
		if current.Analysis != nil {
			snap.Chart = current.Analysis.ChartData()
		}
	}
	return snap
}
