// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/klauspost/compress/zstd"
	gap "github.com/muesli/go-app-paths"

	"github.com/staranto/petcache/internal/store"
)

const (
	plainSuffix      = ".json"
	compressedSuffix = ".json.zst"
	tempPattern      = ".tmp-*"
	keySuffix        = ".key"
	hashedPrefix     = "h-"

	// maxHexName keeps hex stems plus the longest suffix well under the
	// 255 byte NAME_MAX of common filesystems.
	maxHexName = 200
)

// Store keeps one file per key beneath a single directory. The filename is
// the hex encoding of the clear-text key so ListKeys can recover it. Keys too
// long for that are named by their sha256 instead, with the clear-text key in
// a ".key" sidecar next to the entry.
type Store struct {
	dir   string
	level int

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ store.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithDir sets the directory entries live in. Defaults to Dir().
func WithDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

// WithCompression enables zstd compression of new entries at the given
// level (1-22). A level <= 0 writes plain JSON files. Compressed and plain
// entries are both readable regardless of this setting.
func WithCompression(level int) Option {
	return func(s *Store) { s.level = level }
}

// Dir resolves the default store directory.
// Precedence:
//  1. PETCACHE_DIR, if set and non-empty
//  2. the per-user data directory for petcache
func Dir() (string, error) {
	if d, ok := os.LookupEnv("PETCACHE_DIR"); ok && d != "" {
		return d, nil
	}
	scope := gap.NewScope(gap.User, "petcache")
	return scope.DataPath("store")
}

// New creates the store directory if needed and returns a Store rooted there.
func New(opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	if s.dir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve store directory: %w", err)
		}
		s.dir = dir
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	var err error
	if s.level > 0 {
		s.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(s.level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	s.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	log.Debugf("local store at %s (compression=%d)", s.dir, s.level)
	return s, nil
}

// Path returns the directory the store writes to.
func (s *Store) Path() string {
	return s.dir
}

func (s *Store) GetItem(_ context.Context, key string) (string, bool, error) {
	base := filepath.Join(s.dir, encodeKey(key))

	// Compressed entries win so flipping compression on doesn't surface a
	// stale plain file left behind by a failed cleanup.
	if b, err := os.ReadFile(base + compressedSuffix); err == nil {
		data, err := s.decoder.DecodeAll(b, nil)
		if err != nil {
			return "", false, store.IOError("decompress", key, err)
		}
		return string(data), true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, store.IOError("read", key, err)
	}

	b, err := os.ReadFile(base + plainSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, store.IOError("read", key, err)
	}
	return string(b), true, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	data := []byte(value)
	suffix, stale := plainSuffix, compressedSuffix
	if s.encoder != nil {
		data = s.encoder.EncodeAll(data, nil)
		suffix, stale = compressedSuffix, plainSuffix
	}

	stem := encodeKey(key)
	base := filepath.Join(s.dir, stem)
	if hashed(stem) {
		if err := writeAtomic(s.dir, base+keySuffix, []byte(key)); err != nil {
			return store.IOError("write", key, err)
		}
	}
	if err := writeAtomic(s.dir, base+suffix, data); err != nil {
		return store.IOError("write", key, err)
	}

	if err := os.Remove(base + stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warnf("failed to remove stale entry for %s", key)
	}
	return nil
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	stem := encodeKey(key)
	base := filepath.Join(s.dir, stem)
	suffixes := []string{plainSuffix, compressedSuffix}
	if hashed(stem) {
		suffixes = append(suffixes, keySuffix)
	}

	var errs []error
	for _, suffix := range suffixes {
		if err := os.Remove(base + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return store.IOError("remove", key, err)
	}
	return nil
}

func (s *Store) ListKeys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.IOError("list", "", err)
	}

	seen := make(map[string]struct{}, len(entries))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := decodeName(e.Name())
		if !ok {
			stem, isEntry := entryStem(e.Name())
			if !isEntry || !hashed(stem) {
				continue
			}
			b, err := os.ReadFile(filepath.Join(s.dir, stem+keySuffix))
			if err != nil {
				log.WithError(err).Warnf("missing key sidecar for %s", e.Name())
				continue
			}
			key = string(b)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Store) MultiRemove(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := s.RemoveItem(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes every entry file in the directory. Files the store did not
// write (anything whose name doesn't decode to a key) are left alone.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return err
	}
	return s.MultiRemove(ctx, keys)
}

func (s *Store) Close() error {
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			return fmt.Errorf("failed to close zstd encoder: %w", err)
		}
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	return nil
}

// writeAtomic writes data next to path and renames it into place so readers
// never observe a partially written entry.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(os.FileMode(0o600)); err != nil { //nolint:mnd
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// encodeKey hex encodes k for use as a filename, or hashes it when the hex
// form would be too long.
func encodeKey(k string) string {
	if stem := hex.EncodeToString([]byte(k)); len(stem) <= maxHexName {
		return stem
	}
	sum := sha256.Sum256([]byte(k))
	return hashedPrefix + hex.EncodeToString(sum[:])
}

func hashed(stem string) bool {
	return strings.HasPrefix(stem, hashedPrefix)
}

// entryStem strips the entry suffix from name.
func entryStem(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, compressedSuffix):
		return strings.TrimSuffix(name, compressedSuffix), true
	case strings.HasSuffix(name, plainSuffix):
		return strings.TrimSuffix(name, plainSuffix), true
	default:
		return "", false
	}
}

// decodeName reverses encodeKey for a hex-named entry file. Hashed names
// need their sidecar and don't decode.
func decodeName(name string) (string, bool) {
	stem, ok := entryStem(name)
	if !ok {
		return "", false
	}
	b, err := hex.DecodeString(stem)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return string(b), true
}
