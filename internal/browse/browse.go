// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package browse is an interactive key browser over a cache manager.
package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/staranto/petcache/internal/binding"
	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/namespace"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

const (
	help       = "↑/↓ move • enter inspect • d remove • r reload • q quit"
	detailHelp = "e edit • esc back"
	editHelp   = "enter save • esc cancel"
)

type loadedMsg struct {
	rows []table.Row
	err  error
}

type detailMsg struct {
	text string
	err  error
}

type removedMsg struct{ key string }

type savedMsg struct {
	key string
	err error
}

// Model is the bubbletea model for the browser.
type Model struct {
	ctx   context.Context
	m     *cache.Manager
	table table.Model

	detail string
	status string
	notice string
	err    error

	// bound is the key open in the detail view. Edits go through it.
	bound   *binding.Binding[json.RawMessage]
	editing bool
	input   textinput.Model
}

// New returns a browser over m. Run it with tea.NewProgram.
func New(ctx context.Context, m *cache.Manager) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Key", Width: 32},
			{Title: "Shape", Width: 12},
			{Title: "Written", Width: 16},
			{Title: "Expires", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#f6be00")).
		Bold(true)
	t.SetStyles(s)

	in := textinput.New()
	in.Prompt = "value> "
	in.CharLimit = 0

	return Model{ctx: ctx, m: m, table: t, input: in}
}

func (b Model) Init() tea.Cmd {
	return b.load
}

func (b Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			b.table.SetHeight(h)
		}
		return b, nil

	case loadedMsg:
		b.err = msg.err
		if msg.err == nil {
			b.table.SetRows(msg.rows)
			b.status = fmt.Sprintf("%d keys", len(msg.rows))
			if b.notice != "" {
				b.status = b.notice + " • " + b.status
				b.notice = ""
			}
		}
		return b, nil

	case detailMsg:
		b.err = msg.err
		b.detail = msg.text
		return b, nil

	case removedMsg:
		b.notice = "removed " + msg.key
		return b, b.load

	case savedMsg:
		if msg.err != nil {
			b.err = msg.err
			return b, nil
		}
		b.notice = "saved " + msg.key
		return b, tea.Batch(b.inspect(msg.key), b.load)

	case tea.KeyMsg:
		if b.editing {
			return b.updateEditing(msg)
		}
		if b.detail != "" {
			switch msg.String() {
			case "ctrl+c":
				b.unbind()
				return b, tea.Quit
			case "e":
				return b.startEditing()
			case "esc", "enter", "q":
				b.detail = ""
				b.unbind()
			}
			return b, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "r":
			return b, b.load
		case "enter":
			if key := b.selected(); key != "" {
				b.bind(key)
				return b, b.inspect(key)
			}
			return b, nil
		case "d", "delete":
			if key := b.selected(); key != "" {
				return b, b.remove(key)
			}
			return b, nil
		}
	}

	var cmd tea.Cmd
	if b.editing {
		b.input, cmd = b.input.Update(msg)
		return b, cmd
	}
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b Model) View() string {
	var s strings.Builder
	if b.detail != "" {
		s.WriteString(baseStyle.Render(b.detail))
		s.WriteString("\n")
		if b.err != nil {
			s.WriteString(errorStyle.Render(b.err.Error()))
			s.WriteString("\n")
		}
		if b.editing {
			s.WriteString(b.input.View())
			s.WriteString("\n")
			s.WriteString(helpStyle.Render(editHelp))
		} else {
			s.WriteString(helpStyle.Render(detailHelp))
		}
		return s.String()
	}

	s.WriteString(baseStyle.Render(b.table.View()))
	s.WriteString("\n")
	if b.err != nil {
		s.WriteString(errorStyle.Render(b.err.Error()))
	} else {
		s.WriteString(statusStyle.Render(b.status))
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(help))
	return s.String()
}

// bind mounts a binding on key for the detail view.
func (b *Model) bind(key string) {
	b.unbind()
	b.bound = binding.Mount(b.ctx, b.m, key, json.RawMessage("null"),
		binding.WithExpiration(ttlFor(key)))
}

func (b *Model) unbind() {
	if b.bound != nil {
		b.bound.Close()
		b.bound = nil
	}
	b.editing = false
	b.input.Blur()
}

func (b Model) startEditing() (tea.Model, tea.Cmd) {
	if b.bound == nil {
		return b, nil
	}
	if b.bound.Loading() {
		b.err = fmt.Errorf("%s is still loading", b.bound.Key())
		return b, nil
	}
	b.err = nil
	b.editing = true
	b.input.SetValue(string(b.bound.Value()))
	b.input.CursorEnd()
	return b, b.input.Focus()
}

func (b Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		b.unbind()
		return b, tea.Quit
	case "esc":
		b.editing = false
		b.input.Blur()
		return b, nil
	case "enter":
		b.editing = false
		b.input.Blur()
		return b, b.save(b.input.Value())
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

// save writes text through the bound key. Text that isn't JSON is stored as
// a JSON string.
func (b Model) save(text string) tea.Cmd {
	bound := b.bound
	return func() tea.Msg {
		v := json.RawMessage(text)
		if !json.Valid(v) {
			v, _ = json.Marshal(text)
		}
		return savedMsg{key: bound.Key(), err: bound.SetValue(b.ctx, v)}
	}
}

func (b Model) selected() string {
	row := b.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (b Model) load() tea.Msg {
	keys, err := b.m.Keys(b.ctx)
	if err != nil {
		return loadedMsg{err: err}
	}

	now := b.m.Now()
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		d, ok, err := b.m.Peek(b.ctx, k)
		if err != nil {
			rows = append(rows, table.Row{k, "unreadable", "-", "-"})
			continue
		}
		if !ok {
			continue
		}
		written, expires := "-", "never"
		if !d.WrittenAt.IsZero() {
			written = humanize.RelTime(d.WrittenAt, now, "ago", "from now")
		}
		if deadline := d.Deadline(ttlFor(k)); !deadline.IsZero() {
			expires = humanize.RelTime(deadline, now, "ago", "from now")
		}
		rows = append(rows, table.Row{k, d.Shape.String(), written, expires})
	}
	return loadedMsg{rows: rows}
}

func (b Model) inspect(key string) tea.Cmd {
	return func() tea.Msg {
		d, ok, err := b.m.Peek(b.ctx, key)
		if err != nil {
			return detailMsg{err: err}
		}
		if !ok {
			return detailMsg{err: fmt.Errorf("%s is gone", key)}
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, d.Value, "", "  "); err != nil {
			pretty.Reset()
			pretty.Write(d.Value)
		}

		var s strings.Builder
		fmt.Fprintf(&s, "%s  (%s)\n", key, d.Shape)
		if !d.WrittenAt.IsZero() {
			fmt.Fprintf(&s, "written  %s\n", d.WrittenAt.Format(time.RFC3339))
		}
		if deadline := d.Deadline(ttlFor(key)); !deadline.IsZero() {
			fmt.Fprintf(&s, "expires  %s\n", deadline.Format(time.RFC3339))
		}
		s.WriteString("\n")
		s.Write(pretty.Bytes())
		return detailMsg{text: s.String()}
	}
}

func (b Model) remove(key string) tea.Cmd {
	return func() tea.Msg {
		b.m.RemoveKey(b.ctx, key)
		return removedMsg{key: key}
	}
}

func ttlFor(key string) time.Duration {
	if s, ok := namespace.Lookup(key); ok {
		return s.Expiration
	}
	return 0
}
