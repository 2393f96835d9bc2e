// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrIO marks a durable store that is unreachable or rejected an operation.
// Adapters wrap every failure with it so callers can tell store trouble apart
// from everything else with errors.Is.
var ErrIO = errors.New("store i/o")

// Store is a string-keyed, string-valued durable key-value store. Every
// method may block on I/O.
type Store interface {
	// GetItem returns the stored value for key. ok is false when the key is
	// absent; that is not an error.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	MultiRemove(ctx context.Context, keys []string) error
	// Clear wipes the entire store, not only keys written through the cache.
	Clear(ctx context.Context) error
	Close() error
}

// Kind names a Store adapter.
type Kind string

const (
	KindLocal  Kind = "local"
	KindMemory Kind = "memory"
	KindS3     Kind = "s3"
)

// Kinds lists the adapters New can build.
var Kinds = []Kind{KindLocal, KindMemory, KindS3}

// IOError wraps err as an ErrIO for operation op on key.
func IOError(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrIO, op, key, err)
}
