// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package store defines the durable key-value contract the cache persists
// through, and selects one of the concrete adapters (local directory,
// in-process memory, S3 bucket) from a set of options.
package store
