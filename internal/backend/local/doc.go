// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package local is a directory-backed durable store. Each key is a file,
// optionally zstd compressed.
package local
