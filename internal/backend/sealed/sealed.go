// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts values at rest on top of any durable store. Keys
// are left in clear text so listing and prefix clears keep working.
package sealed

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/staranto/petcache/internal/store"
)

const (
	prefix   = "sealed:v1:"
	saltLen  = 16
	nonceLen = 24
	keyLen   = 32

	// DefaultCost is the scrypt N parameter.
	DefaultCost = 1 << 15
)

// ErrOpen is a sealed value that won't open with the configured passphrase.
var ErrOpen = errors.New("cannot open sealed value")

// Store seals values written to the wrapped store.
type Store struct {
	store.Store

	passphrase []byte
	cost       int
	rand       io.Reader

	mu   sync.Mutex
	keys map[[saltLen]byte]*[keyLen]byte
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithCost overrides the scrypt N parameter. It must be a power of two.
func WithCost(n int) Option {
	return func(s *Store) { s.cost = n }
}

// New wraps inner. The passphrase must not be empty.
func New(inner store.Store, passphrase string, opts ...Option) (*Store, error) {
	if passphrase == "" {
		return nil, errors.New("sealed store requires a passphrase")
	}
	s := &Store{
		Store:      inner,
		passphrase: []byte(passphrase),
		cost:       DefaultCost,
		rand:       rand.Reader,
		keys:       make(map[[saltLen]byte]*[keyLen]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetItem opens a sealed value. Values written before sealing was turned on
// are returned as they are.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.Store.GetItem(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if !strings.HasPrefix(v, prefix) {
		return v, true, nil
	}

	plain, err := s.open(strings.TrimPrefix(v, prefix))
	if err != nil {
		return "", false, store.IOError("open", key, err)
	}
	return plain, true, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return store.IOError("seal", key, err)
	}
	return s.Store.SetItem(ctx, key, prefix+sealed)
}

func (s *Store) seal(plain string) (string, error) {
	var salt [saltLen]byte
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(s.rand, salt[:]); err != nil {
		return "", err
	}
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return "", err
	}

	k, err := s.derive(salt)
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltLen+nonceLen+len(plain)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plain), &nonce, k)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *Store) open(encoded string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if len(raw) < saltLen+nonceLen+secretbox.Overhead {
		return "", fmt.Errorf("%w: truncated", ErrOpen)
	}

	var salt [saltLen]byte
	var nonce [nonceLen]byte
	copy(salt[:], raw[:saltLen])
	copy(nonce[:], raw[saltLen:saltLen+nonceLen])

	k, err := s.derive(salt)
	if err != nil {
		return "", err
	}

	plain, ok := secretbox.Open(nil, raw[saltLen+nonceLen:], &nonce, k)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}

// derive memoizes scrypt per salt; it's deliberately slow.
func (s *Store) derive(salt [saltLen]byte) (*[keyLen]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.keys[salt]; ok {
		return k, nil
	}

	b, err := scrypt.Key(s.passphrase, salt[:], s.cost, 8, 1, keyLen)
	if err != nil {
		return nil, err
	}
	var k [keyLen]byte
	copy(k[:], b)
	s.keys[salt] = &k
	return &k, nil
}
