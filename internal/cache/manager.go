// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/benbjohnson/clock"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/petcache/internal/envelope"
	"github.com/staranto/petcache/internal/store"
)

const defaultEvictTimeout = 30 * time.Second

// Manager mediates between an in-memory map and a durable store.
type Manager struct {
	store        store.Store
	clock        clock.Clock
	logger       log.Interface
	evictTimeout time.Duration
	negativeTTL  time.Duration

	mu      sync.Mutex
	entries map[string]entry
	timers  map[string]*evictTimer
	closed  bool

	loads      singleflight.Group
	tombstones *ttlcache.Cache[string, struct{}]
}

// entry is an unwrapped value plus what's needed to re-check its expiry.
type entry struct {
	value     any
	writtenAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time, ttl time.Duration) bool {
	return envelope.Decoded{WrittenAt: e.writtenAt, TTL: e.ttl}.Expired(now, ttl)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for timestamps and eviction timers.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger. Defaults to the package-level apex logger.
func WithLogger(l log.Interface) Option {
	return func(m *Manager) { m.logger = l }
}

// WithNegativeTTL remembers store misses for d so repeated reads of an absent
// key don't each go to the store. Zero disables it.
func WithNegativeTTL(d time.Duration) Option {
	return func(m *Manager) { m.negativeTTL = d }
}

// WithEvictTimeout bounds the store call a firing eviction timer makes.
func WithEvictTimeout(d time.Duration) Option {
	return func(m *Manager) { m.evictTimeout = d }
}

// New returns a Manager persisting through s.
func New(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:        s,
		clock:        clock.New(),
		logger:       log.Log,
		evictTimeout: defaultEvictTimeout,
		entries:      make(map[string]entry),
		timers:       make(map[string]*evictTimer),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.negativeTTL > 0 {
		m.tombstones = ttlcache.New[string, struct{}](
			ttlcache.WithTTL[string, struct{}](m.negativeTTL),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		)
		go m.tombstones.Start()
	}

	return m
}

// Get returns the live value for cfg, hydrating it from the store on a miss.
// It never fails: absent, expired, unreadable or undecodable values all
// yield cfg.Default.
func Get[T any](ctx context.Context, m *Manager, cfg Config[T]) T {
	l := m.logger.WithField("key", cfg.Key)
	now := m.clock.Now()

	m.mu.Lock()
	e, hit := m.entries[cfg.Key]
	m.mu.Unlock()

	if hit {
		if e.expired(now, cfg.Expiration) {
			l.Debug("cached value expired")
			m.RemoveKey(ctx, cfg.Key)
			return cfg.Default
		}
		if v, ok := e.value.(T); ok {
			return v
		}
		l.Warnf("cached value is %T, not %T; rereading store", e.value, cfg.Default)
	}

	d, ok := m.hydrate(ctx, cfg.Key)
	if !ok {
		return cfg.Default
	}

	if d.Expired(now, cfg.Expiration) {
		l.Debugf("stored value written %s expired", d.WrittenAt.Format(time.RFC3339))
		m.RemoveKey(ctx, cfg.Key)
		return cfg.Default
	}

	v, err := envelope.Unmarshal[T](d)
	if err != nil {
		l.WithError(err).Error("failed to decode stored value")
		return cfg.Default
	}

	got := m.populate(cfg.Key, entry{value: v, writtenAt: d.WrittenAt, ttl: d.TTL}, d.Deadline(cfg.Expiration), !hit)
	if cv, ok := got.value.(T); ok {
		return cv
	}
	return v
}

// Set writes value through to the store and, once that succeeds, into the
// in-memory cache. A configured expiration (re)arms the key's eviction timer.
// The store's error is returned unchanged apart from being marked ErrIO.
func Set[T any](ctx context.Context, m *Manager, cfg Config[T], value T) error {
	l := m.logger.WithField("key", cfg.Key)
	now := m.clock.Now()

	payload, err := envelope.Encode(value, now, cfg.Expiration)
	if err != nil {
		return err
	}

	if err := m.store.SetItem(ctx, cfg.Key, payload); err != nil {
		if !errors.Is(err, store.ErrIO) {
			err = store.IOError("set", cfg.Key, err)
		}
		l.WithError(err).Error("write-through failed")
		return err
	}

	m.forgetMiss(cfg.Key)

	m.mu.Lock()
	m.entries[cfg.Key] = entry{value: value, writtenAt: now, ttl: cfg.Expiration}
	if cfg.Expiration > 0 {
		m.armLocked(cfg.Key, cfg.Expiration)
	} else {
		m.cancelLocked(cfg.Key)
	}
	m.mu.Unlock()

	l.Debugf("stored (ttl=%s)", cfg.Expiration)
	return nil
}

// Remove deletes cfg's key. See RemoveKey.
func Remove[T any](ctx context.Context, m *Manager, cfg Config[T]) {
	m.RemoveKey(ctx, cfg.Key)
}

// RemoveKey deletes key from the store and the in-memory cache and cancels
// its timer. Removing an absent key is fine. Store failures are logged.
func (m *Manager) RemoveKey(ctx context.Context, key string) {
	if err := m.remove(ctx, key); err != nil {
		m.logger.WithField("key", key).WithError(err).Error("failed to remove from store")
	}
}

func (m *Manager) remove(ctx context.Context, key string) error {
	err := m.store.RemoveItem(ctx, key)

	m.mu.Lock()
	delete(m.entries, key)
	m.cancelLocked(key)
	m.mu.Unlock()

	m.forgetMiss(key)
	return err
}

// ClearAll wipes the entire durable store, including keys the cache never
// wrote, empties the in-memory cache and cancels every pending timer.
func (m *Manager) ClearAll(ctx context.Context) {
	err := m.store.Clear(ctx)

	m.mu.Lock()
	m.entries = make(map[string]entry)
	for key := range m.timers {
		m.cancelLocked(key)
	}
	m.mu.Unlock()

	if m.tombstones != nil {
		m.tombstones.DeleteAll()
	}

	if err != nil {
		m.logger.WithError(err).Error("failed to clear store")
		return
	}
	m.logger.Debug("cleared all keys")
}

// ClearByPrefix removes every stored key starting with prefix, then purges
// the matching in-memory entries and timers. An empty prefix is refused; use
// ClearAll for that.
func (m *Manager) ClearByPrefix(ctx context.Context, prefix string) {
	l := m.logger.WithField("prefix", prefix)
	if prefix == "" {
		l.Warn("refusing to clear an empty prefix")
		return
	}

	keys, err := m.store.ListKeys(ctx)
	if err != nil {
		l.WithError(err).Error("failed to list store keys")
	}

	var matched []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}

	if len(matched) > 0 {
		if err := m.store.MultiRemove(ctx, matched); err != nil {
			l.WithError(err).Error("failed to remove keys from store")
		}
	}

	m.mu.Lock()
	for _, k := range matched {
		delete(m.entries, k)
		m.cancelLocked(k)
	}
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	for k := range m.timers {
		if strings.HasPrefix(k, prefix) {
			m.cancelLocked(k)
		}
	}
	m.mu.Unlock()

	if m.tombstones != nil {
		for _, k := range m.tombstones.Keys() {
			if strings.HasPrefix(k, prefix) {
				m.tombstones.Delete(k)
			}
		}
	}

	l.Debugf("cleared %d stored keys", len(matched))
}

// Keys lists the keys currently in the durable store, sorted.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	keys, err := m.store.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Peek reads and decodes key straight from the store without touching the
// in-memory cache. ok is false when the key is absent.
func (m *Manager) Peek(ctx context.Context, key string) (envelope.Decoded, bool, error) {
	payload, ok, err := m.store.GetItem(ctx, key)
	if err != nil || !ok {
		return envelope.Decoded{}, false, err
	}
	d, err := envelope.Decode(payload)
	if err != nil {
		return envelope.Decoded{}, true, err
	}
	return d, true, nil
}

// Cached reports whether key currently has an in-memory entry.
func (m *Manager) Cached(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Logger is the logger the manager was built with.
func (m *Manager) Logger() log.Interface {
	return m.logger
}

// Now is the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}

// Close cancels every pending eviction timer and stops the miss cache. The
// manager keeps serving reads and writes afterwards, without timers; expiry
// is still enforced on every Get.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for key := range m.timers {
		m.cancelLocked(key)
	}
	m.mu.Unlock()

	if m.tombstones != nil {
		m.tombstones.Stop()
	}
}

// hydrate reads key from the store, sharing one round trip between
// concurrent callers. ok is false if there is nothing usable.
func (m *Manager) hydrate(ctx context.Context, key string) (envelope.Decoded, bool) {
	l := m.logger.WithField("key", key)

	if m.missRemembered(key) {
		return envelope.Decoded{}, false
	}

	// The read outlives a caller that gives up; the others sharing it still
	// want the answer.
	readCtx := context.WithoutCancel(ctx)
	v, err, shared := m.loads.Do(key, func() (any, error) {
		payload, ok, err := m.store.GetItem(readCtx, key)
		if err != nil || !ok {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		l.WithError(err).Error("failed to read from store")
		return envelope.Decoded{}, false
	}
	if shared {
		l.Debug("shared in-flight store read")
	}

	payload, ok := v.(string)
	if !ok {
		m.rememberMiss(key)
		return envelope.Decoded{}, false
	}

	d, err := envelope.Decode(payload)
	if err != nil {
		l.WithError(err).Error("failed to parse stored payload")
		return envelope.Decoded{}, false
	}
	return d, true
}

// populate caches e and arms a timer for its remaining lifetime. With
// keepExisting, an entry written while the store read was in flight wins and
// is returned instead.
func (m *Manager) populate(key string, e entry, deadline time.Time, keepExisting bool) entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.entries[key]; ok && keepExisting {
		return cur
	}
	m.entries[key] = e

	if !deadline.IsZero() {
		if _, armed := m.timers[key]; !armed {
			m.armLocked(key, deadline.Sub(m.clock.Now()))
		}
	}
	return e
}

func (m *Manager) missRemembered(key string) bool {
	return m.tombstones != nil && m.tombstones.Get(key) != nil
}

func (m *Manager) rememberMiss(key string) {
	if m.tombstones != nil {
		m.tombstones.Set(key, struct{}{}, ttlcache.DefaultTTL)
	}
}

func (m *Manager) forgetMiss(key string) {
	if m.tombstones != nil {
		m.tombstones.Delete(key)
	}
}
