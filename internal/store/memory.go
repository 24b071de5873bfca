// internal/store/memory.go
//
// In-memory registry of live rounds for the HTTP play surface.
//
// Characteristics:
//   - Stores *game.Round objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex; Update runs its callback under the write lock,
//     so two guesses on the same round never interleave. View reads under the
//     read lock, since rounds are mutated in place.
//   - State is lost when the process restarts (finished rounds live in history).

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/desktools/internal/game"
)

// ErrNotFound is returned for unknown round IDs.
var ErrNotFound = errors.New("round not found")

// Store defines the live-round interface.
type Store interface {
	// Save persists or replaces a round.
	Save(ctx context.Context, r *game.Round) error

	// Get retrieves a round by ID.
	Get(ctx context.Context, id string) (*game.Round, error)

	// Update applies fn to the stored round while holding exclusive access.
	Update(ctx context.Context, id string, fn func(*game.Round) error) error

	// View runs fn on the stored round under shared access; fn must not mutate it.
	View(ctx context.Context, id string, fn func(*game.Round) error) error

	// Delete drops a round; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

type memory struct {
	mu     sync.RWMutex
	rounds map[string]*game.Round
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*game.Round)}
}

func (m *memory) Save(ctx context.Context, r *game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID] = r
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rounds[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Round) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (m *memory) View(ctx context.Context, id string, fn func(*game.Round) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
	return nil
}
