// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package memory is a process-local durable store. Nothing survives the
// process; it exists for tests and for dry runs of the CLI.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/staranto/petcache/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// ListKeys returns the keys in sorted order.
func (s *Store) ListKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) MultiRemove(_ context.Context, keys []string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.items = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Len reports how many keys are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
