// Package guard enforces at most one outstanding comparison run per
// session.
package guard

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned by Acquire when the key is already held.
var ErrHeld = errors.New("run already in progress")

// Guard hands out exclusive holds on keys. Release must be called exactly
// once for every successful Acquire.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is an in-process Guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) Acquire(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[key]; ok {
		return nil, ErrHeld
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently held.
func (m *Memory) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[key]
	return ok
}
