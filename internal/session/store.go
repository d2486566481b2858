package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/guard"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/pkg/logger"
)

// forgetter is implemented by guards whose holds outlive the process.
type forgetter interface {
	Forget(ctx context.Context, key string) error
}

// Store keeps live sessions in memory. Nothing survives a restart.
type Store struct {
	comparer Comparer
	guard    guard.Guard

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(comparer Comparer, g guard.Guard) *Store {
	if g == nil {
		g = guard.NewMemory()
	}
	return &Store{
		comparer: comparer,
		guard:    g,
		sessions: make(map[string]*Session),
	}
}

func (s *Store) Create() *Session {
	sess := New(uuid.New().String(), s.comparer, s.guard)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logger.Info("Session created", zap.String("session_id", sess.ID()))
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	metrics.ActiveSessions.Dec()
	metrics.HistoryEntries.Sub(float64(sess.HistoryLen()))

	if f, ok := s.guard.(forgetter); ok {
		if err := f.Forget(ctx, id); err != nil {
			logger.Warn("Failed to drop run lock", zap.String("session_id", id), zap.Error(err))
		}
	}

	logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
