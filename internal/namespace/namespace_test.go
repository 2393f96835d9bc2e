// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/petcache/internal/backend/memory"
	"github.com/staranto/petcache/internal/cache"
)

func TestJoinSplit(t *testing.T) {
	assert.Equal(t, "pets:lastSelected", Join("pets", "lastSelected"))
	assert.Equal(t, []string{"pets", "lastSelected"}, Split("pets:lastSelected"))
	assert.Nil(t, Split(""))
	assert.Equal(t, "calendar:", Prefix("calendar"))
	assert.Equal(t, "a:b:", Prefix("a", "b"))
	assert.Equal(t, "", Prefix())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"pets:lastSelected", false},
		{"plain", false},
		{"a:b:c", false},
		{"", true},
		{":lead", true},
		{"trail:", true},
		{"a::b", true},
		{"has space", true},
		{"tab\there", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := Validate(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	for _, s := range Slots {
		assert.NoError(t, Validate(s.Key), s.Key)
	}

	s, ok := Lookup("pets:lastSelected")
	require.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, s.Expiration)

	_, ok = Lookup("pets:unknown")
	assert.False(t, ok)
}

func TestPrefixClearLeavesSiblings(t *testing.T) {
	ctx := context.Background()
	m := cache.New(memory.New())
	defer m.Close()

	require.NoError(t, cache.Set(ctx, m, CalendarFilters, CalendarFilter{PetIDs: []string{"p1"}}))
	require.NoError(t, cache.Set(ctx, m, cache.Config[string]{Key: Join(Calendar, "view")}, "month"))
	require.NoError(t, cache.Set(ctx, m, LastSelectedPet, "p1"))

	m.ClearByPrefix(ctx, Prefix(Calendar))

	assert.Equal(t, CalendarFilter{}, cache.Get(ctx, m, CalendarFilters))
	assert.Equal(t, "p1", cache.Get(ctx, m, LastSelectedPet))
	assert.Equal(t, "system", cache.Get(ctx, m, UserPreferences).Theme)
}
