// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/staranto/petcache/internal/cache"
)

// ErrClosed is returned by mutators once the binding has been closed.
var ErrClosed = errors.New("binding closed")

type options struct {
	expiration time.Duration
	logger     log.Interface
}

// Option customizes a Binding.
type Option func(*options)

// WithExpiration sets the slot's TTL.
func WithExpiration(d time.Duration) Option {
	return func(o *options) { o.expiration = d }
}

// WithLogger sets the logger. Defaults to the manager's logger.
func WithLogger(l log.Interface) Option {
	return func(o *options) { o.logger = l }
}

// Binding is a live view of one cache slot.
type Binding[T any] struct {
	m      *cache.Manager
	cfg    cache.Config[T]
	logger log.Interface

	mu        sync.Mutex
	value     T
	loading   bool
	closed    bool
	gen       uint64
	observers map[int]func(T)
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
}

// Mount binds key on m and starts hydrating it in the background. Until the
// first hydration resolves, Value is def and Loading is true.
func Mount[T any](ctx context.Context, m *cache.Manager, key string, def T, opts ...Option) *Binding[T] {
	o := options{logger: m.Logger()}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Binding[T]{
		m:         m,
		cfg:       cache.Config[T]{Key: key, Default: def, Expiration: o.expiration},
		logger:    o.logger.WithField("key", key),
		value:     def,
		loading:   true,
		observers: make(map[int]func(T)),
		ready:     make(chan struct{}),
	}

	go b.hydrate(ctx)
	return b
}

// Value is the current value.
func (b *Binding[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Loading is true until the first hydration resolves.
func (b *Binding[T]) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Ready is closed once the first hydration resolves or the binding closes.
func (b *Binding[T]) Ready() <-chan struct{} {
	return b.ready
}

// Key is the bound cache key.
func (b *Binding[T]) Key() string {
	return b.cfg.Key
}

// SetValue shows v immediately, then writes it through the cache. A failed
// write is logged and returned; the shown value is not rolled back.
func (b *Binding[T]) SetValue(ctx context.Context, v T) error {
	if !b.update(v) {
		return ErrClosed
	}

	if err := cache.Set(ctx, b.m, b.cfg, v); err != nil {
		b.logger.WithError(err).Error("failed to persist value")
		return err
	}
	return nil
}

// Clear resets the value to the default and removes the key from storage.
func (b *Binding[T]) Clear(ctx context.Context) error {
	if !b.update(b.cfg.Default) {
		return ErrClosed
	}
	cache.Remove(ctx, b.m, b.cfg)
	return nil
}

// Reload re-reads the slot and waits for the result.
func (b *Binding[T]) Reload(ctx context.Context) {
	b.hydrate(ctx)
}

// OnChange registers fn to be called with every new value. The returned
// function unregisters it.
func (b *Binding[T]) OnChange(fn func(T)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.observers[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Close detaches the binding. Hydrations still in flight finish in the
// background but their results are dropped, and mutators return ErrClosed.
func (b *Binding[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.observers = make(map[int]func(T))
	b.mu.Unlock()

	b.readyOnce.Do(func() { close(b.ready) })
}

// update publishes v as a local change. It reports false once closed.
func (b *Binding[T]) update(v T) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.gen++
	b.value = v
	obs := b.snapshotLocked()
	b.mu.Unlock()

	notify(obs, v)
	return true
}

func (b *Binding[T]) hydrate(ctx context.Context) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	v := cache.Get(ctx, b.m, b.cfg)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug("dropping hydration for closed binding")
		return
	}
	first := b.loading
	b.loading = false

	// A newer hydration or a local change got in while this one was reading.
	if gen != b.gen {
		b.mu.Unlock()
		if first {
			b.readyOnce.Do(func() { close(b.ready) })
		}
		return
	}

	b.value = v
	obs := b.snapshotLocked()
	b.mu.Unlock()

	if first {
		b.readyOnce.Do(func() { close(b.ready) })
	}
	notify(obs, v)
}

func (b *Binding[T]) snapshotLocked() []func(T) {
	obs := make([]func(T), 0, len(b.observers))
	for _, fn := range b.observers {
		obs = append(obs, fn)
	}
	return obs
}

func notify[T any](obs []func(T), v T) {
	for _, fn := range obs {
		fn(v)
	}
}
