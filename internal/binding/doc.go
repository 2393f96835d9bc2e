// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package binding wraps one cache slot for a view: the current value, an
// optimistic setter, clear, a loading flag, manual reload and change
// notifications. Everything goes through the cache manager.
package binding
