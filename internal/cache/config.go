// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"time"

	"github.com/staranto/petcache/internal/envelope"
	"github.com/staranto/petcache/internal/store"
)

var (
	// ErrIO is a durable store failure.
	ErrIO = store.ErrIO
	// ErrParse is a stored payload that can't be decoded.
	ErrParse = envelope.ErrParse
	// ErrTimer is a failed or panicking background eviction.
	ErrTimer = errors.New("eviction timer")
)

// Config identifies one logical cache slot.
type Config[T any] struct {
	// Key is namespace qualified, e.g. "calendar:filters".
	Key string
	// Default is returned whenever the slot has no live value.
	Default T
	// Expiration is the slot's TTL. Zero means entries never expire.
	Expiration time.Duration
}
