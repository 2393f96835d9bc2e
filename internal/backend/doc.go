// Copyright (c) 2025 Steve Taranto staranto@gmail.com.
// SPDX-License-Identifier: Apache-2.0

// Package backend builds the durable store a cache persists to. The concrete
// adapters live in the local, memory and s3 subpackages.
package backend
