// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/petcache/internal/backend/memory"
	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/namespace"
)

func setup(t *testing.T) (Model, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	m := cache.New(s)
	t.Cleanup(m.Close)

	require.NoError(t, cache.Set(ctx, m, namespace.LastSelectedPet, "pet_42"))
	require.NoError(t, cache.Set(ctx, m, namespace.UserPreferences, namespace.Preferences{Theme: "dark"}))
	require.NoError(t, s.SetItem(ctx, "legacy:raw", `{"a":1}`))

	b := New(ctx, m)
	next, _ := b.Update(b.load())
	return next.(Model), s
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoad(t *testing.T) {
	b, _ := setup(t)

	rows := b.table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "legacy:raw", rows[0][0])
	assert.Equal(t, "raw", rows[0][1])
	assert.Equal(t, "-", rows[0][2])
	assert.Equal(t, "pets:lastSelected", rows[1][0])
	assert.Equal(t, "explicit", rows[1][1])
	assert.NotEqual(t, "never", rows[1][3])
	assert.Equal(t, "never", rows[2][3])

	assert.Contains(t, b.View(), "3 keys")
}

func TestInspect(t *testing.T) {
	b, _ := setup(t)

	next, _ := b.Update(key("down"))
	b = next.(Model)
	require.Equal(t, "pets:lastSelected", b.selected())

	next, cmd := b.Update(key("enter"))
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	b = next.(Model)

	assert.Contains(t, b.View(), `"pet_42"`)
	assert.Contains(t, b.View(), "expires")

	next, _ = b.Update(key("esc"))
	b = next.(Model)
	assert.Empty(t, b.detail)
}

func TestRemove(t *testing.T) {
	b, s := setup(t)
	ctx := context.Background()

	next, cmd := b.Update(key("d"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, removedMsg{key: "legacy:raw"}, msg)

	_, ok, err := s.GetItem(ctx, "legacy:raw")
	require.NoError(t, err)
	assert.False(t, ok)

	next, cmd = next.Update(msg)
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	b = next.(Model)
	assert.Len(t, b.table.Rows(), 2)
	assert.Contains(t, b.View(), "removed legacy:raw")
}

func TestQuit(t *testing.T) {
	b, _ := setup(t)

	_, cmd := b.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestEmptyStore(t *testing.T) {
	m := cache.New(memory.New())
	defer m.Close()

	b := New(context.Background(), m)
	next, _ := b.Update(b.load())
	b = next.(Model)

	_, cmd := b.Update(key("enter"))
	assert.Nil(t, cmd)
	_, cmd = b.Update(key("d"))
	assert.Nil(t, cmd)
	assert.Contains(t, b.View(), "0 keys")
}

func TestWindowSize(t *testing.T) {
	b, _ := setup(t)
	before := b.table.Height()
	next, _ := b.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Greater(t, next.(Model).table.Height(), before)
}

// drain runs cmd and feeds what it produces back into b.
func drain(t *testing.T, b Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return b
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			b = drain(t, b, c)
		}
		return b
	}
	next, _ := b.Update(msg)
	return next.(Model)
}

func openDetail(t *testing.T, b Model, down int) Model {
	t.Helper()
	for i := 0; i < down; i++ {
		next, _ := b.Update(key("down"))
		b = next.(Model)
	}
	next, cmd := b.Update(key("enter"))
	b = drain(t, next.(Model), cmd)
	require.NotNil(t, b.bound)

	select {
	case <-b.bound.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("binding never hydrated")
	}
	return b
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	b, _ := setup(t)

	b = openDetail(t, b, 1)
	assert.Equal(t, "pets:lastSelected", b.bound.Key())

	next, _ := b.Update(key("e"))
	b = next.(Model)
	require.True(t, b.editing)
	assert.Equal(t, `"pet_42"`, b.input.Value())
	assert.Contains(t, b.View(), "enter save")

	b.input.SetValue(`"pet_7"`)
	next, cmd := b.Update(key("enter"))
	b = drain(t, next.(Model), cmd)

	assert.False(t, b.editing)
	assert.NoError(t, b.err)
	assert.Contains(t, b.detail, `"pet_7"`)
	assert.Contains(t, b.status, "saved pets:lastSelected")
	assert.Equal(t, "pet_7", cache.Get(ctx, b.m, namespace.LastSelectedPet))

	// Leaving the detail view releases the binding.
	next, _ = b.Update(key("esc"))
	b = next.(Model)
	assert.Nil(t, b.bound)
	assert.Empty(t, b.detail)
}

func TestEdit_PlainTextIsStoredAsString(t *testing.T) {
	ctx := context.Background()
	b, _ := setup(t)

	b = openDetail(t, b, 1)
	next, _ := b.Update(key("e"))
	b = next.(Model)

	b.input.SetValue("pet_9")
	next, cmd := b.Update(key("enter"))
	b = drain(t, next.(Model), cmd)

	assert.Equal(t, "pet_9", cache.Get(ctx, b.m, namespace.LastSelectedPet))
}

func TestEdit_EscCancels(t *testing.T) {
	ctx := context.Background()
	b, _ := setup(t)

	b = openDetail(t, b, 1)
	next, _ := b.Update(key("e"))
	b = next.(Model)

	b.input.SetValue(`"pet_0"`)
	next, cmd := b.Update(key("esc"))
	b = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, b.editing)
	assert.NotEmpty(t, b.detail)
	assert.Equal(t, "pet_42", cache.Get(ctx, b.m, namespace.LastSelectedPet))
}
