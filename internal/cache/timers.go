// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// evictTimer is a pending single-shot eviction. Its address is its identity:
// a callback whose timer is no longer the one registered for the key has been
// superseded and does nothing.
type evictTimer struct {
	t *clock.Timer
}

// armLocked schedules key's eviction after d, replacing any pending one.
// m.mu must be held.
func (m *Manager) armLocked(key string, d time.Duration) {
	m.cancelLocked(key)
	if m.closed {
		return
	}

	et := &evictTimer{}
	et.t = m.clock.AfterFunc(d, func() { m.fire(key, et) })
	m.timers[key] = et
}

// cancelLocked stops key's pending eviction, if any. m.mu must be held.
func (m *Manager) cancelLocked(key string) {
	if et, ok := m.timers[key]; ok {
		et.t.Stop()
		delete(m.timers, key)
	}
}

func (m *Manager) fire(key string, et *evictTimer) {
	l := m.logger.WithField("key", key)

	defer func() {
		if r := recover(); r != nil {
			l.WithError(fmt.Errorf("%w: %v", ErrTimer, r)).Error("eviction panicked")
		}
	}()

	m.mu.Lock()
	if m.timers[key] != et {
		m.mu.Unlock()
		return
	}
	delete(m.timers, key)
	m.mu.Unlock()

	l.Debug("evicting expired key")

	ctx, cancel := context.WithTimeout(context.Background(), m.evictTimeout)
	defer cancel()

	if err := m.remove(ctx, key); err != nil {
		l.WithError(fmt.Errorf("%w: %w", ErrTimer, err)).Error("eviction failed")
	}
}

// Pending reports how many eviction timers are armed.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// PendingKey reports whether key has an armed eviction timer.
func (m *Manager) PendingKey(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[key]
	return ok
}
