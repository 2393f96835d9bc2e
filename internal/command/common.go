// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/backend"
	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/config"
	"github.com/staranto/petcache/internal/meta"
	"github.com/staranto/petcache/internal/namespace"
	"github.com/staranto/petcache/internal/output"
	"github.com/staranto/petcache/internal/store"
)

// ErrNotFound is returned by commands that need a key to exist.
var ErrNotFound = errors.New("key not found")

// ShortCircuitExamples prints the command's examples when --examples is set,
// and returns true so the caller can exit early.
func ShortCircuitExamples(cmd *cli.Command) bool {
	if !cmd.Bool("examples") {
		return false
	}
	examples, _ := cmd.Metadata["examples"].([][2]string)
	output.DumpExamples(stdout(cmd), examples)
	return true
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CommandBuilder constructs a cli.Command using a consistent pattern. It
// wires metadata, adds the global flags, the validator and the --examples
// short circuit.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	ArgsUsage string
	Flags     []cli.Flag
	Examples  [][2]string
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	action := cb.Action
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		ArgsUsage: cb.ArgsUsage,
		Metadata: map[string]any{
			"meta":     cb.Meta,
			"examples": cb.Examples,
		},
		Flags: append(cb.Flags, NewGlobalFlags(cb.Name, cb.Meta.ConfigSource())...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if ShortCircuitExamples(c) {
				return nil
			}
			log.Debugf("Executing action for %v", GetMeta(c).Args)
			return action(ctx, c)
		},
	}
}

// Session is an opened store and the cache manager over it.
type Session struct {
	Manager *cache.Manager
	Store   store.Store
}

// OpenSession builds the store the flags describe and a manager tuned from
// the config file's cache section.
func OpenSession(ctx context.Context, cmd *cli.Command) (*Session, error) {
	opts := backend.Options{
		Kind:        store.Kind(cmd.String("store")),
		Dir:         cmd.String("dir"),
		Compression: cmd.Int("compress"),
		Bucket:      cmd.String("bucket"),
		Prefix:      cmd.String("s3-prefix"),
		Region:      cmd.String("region"),
		Profile:     cmd.String("profile"),
		Endpoint:    cmd.String("endpoint"),
		Passphrase:  cmd.String("passphrase"),
	}

	s, err := backend.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Kind, err)
	}

	m := cache.New(s, managerOptions()...)
	return &Session{Manager: m, Store: s}, nil
}

// Close stops the manager's timers and releases the store.
func (s *Session) Close() {
	s.Manager.Close()
	if err := s.Store.Close(); err != nil {
		log.WithError(err).Warn("failed to close store")
	}
}

func managerOptions() []cache.Option {
	var opts []cache.Option

	if d, err := config.GetDuration("cache.negative_ttl", 0); err != nil {
		log.WithError(err).Warn("ignoring cache.negative_ttl")
	} else if d > 0 {
		opts = append(opts, cache.WithNegativeTTL(d))
	}

	if d, err := config.GetDuration("cache.evict_timeout", 0); err != nil {
		log.WithError(err).Warn("ignoring cache.evict_timeout")
	} else if d > 0 {
		opts = append(opts, cache.WithEvictTimeout(d))
	}

	return opts
}

// slotTTL is the TTL of a well-known key, zero otherwise.
func slotTTL(key string) time.Duration {
	if s, ok := namespace.Lookup(key); ok {
		return s.Expiration
	}
	return 0
}

// parseValue reads a command line value as JSON. Anything that isn't valid
// JSON is taken as a string.
func parseValue(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

// emitValue writes a JSON value in the requested format.
func emitValue(w io.Writer, format string, raw json.RawMessage) error {
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	case "yaml":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return output.Emit(w, "yaml", v)
	default:
		_, err := fmt.Fprintln(w, gjson.ParseBytes(raw).String())
		return err
	}
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func colorize(cmd *cli.Command) bool {
	return cmd.Bool("color") && output.IsTerminal(stdout(cmd))
}
