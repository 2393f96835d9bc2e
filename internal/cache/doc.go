// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache is the persistent cache manager: an in-memory map in front of
// a durable store, with write-through persistence, optional per-key TTL
// eviction and prefix-based bulk invalidation.
//
// A process creates one Manager at startup and hands it to every consumer.
// Reads never fail; they log and fall back to the slot's default. Writes
// return the store's error so the caller can react to it.
package cache
