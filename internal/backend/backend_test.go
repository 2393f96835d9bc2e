// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/petcache/internal/backend/local"
	"github.com/staranto/petcache/internal/backend/memory"
	"github.com/staranto/petcache/internal/backend/sealed"
	"github.com/staranto/petcache/internal/store"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := New(ctx, Options{Kind: store.KindMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, s)
	})

	t.Run("local is the default", func(t *testing.T) {
		dir := t.TempDir()
		s, err := New(ctx, Options{Dir: dir})
		require.NoError(t, err)
		defer s.Close()
		require.IsType(t, &local.Store{}, s)
		assert.Equal(t, dir, s.(*local.Store).Path())
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		_, err := New(ctx, Options{Kind: store.KindS3})
		assert.Error(t, err)
	})

	t.Run("passphrase seals", func(t *testing.T) {
		s, err := New(ctx, Options{Kind: store.KindMemory, Passphrase: "hunter2"})
		require.NoError(t, err)
		assert.IsType(t, &sealed.Store{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(ctx, Options{Kind: "redis"})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}
