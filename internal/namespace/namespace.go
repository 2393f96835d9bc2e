// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package namespace builds and checks colon-delimited cache keys and names
// the slots the client uses.
package namespace

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Sep separates the segments of a key.
const Sep = ":"

// ErrInvalidKey is returned by Validate.
var ErrInvalidKey = errors.New("invalid key")

// Join builds a key from its segments, e.g. Join("pets", "lastSelected").
func Join(parts ...string) string {
	return strings.Join(parts, Sep)
}

// Prefix is the key prefix covering everything under the given namespace,
// including the trailing separator so "pets" never matches "petsitters".
func Prefix(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	return Join(parts...) + Sep
}

// Split breaks a key into its segments.
func Split(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, Sep)
}

// Validate checks key is usable: non-empty, no empty segments, no whitespace
// or control characters.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for i, seg := range Split(key) {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment at %d", ErrInvalidKey, key, i)
		}
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains %U", ErrInvalidKey, key, r)
		}
	}
	return nil
}
