// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/meta"
	"github.com/staranto/petcache/internal/output"
)

var keysColumns = []string{"key", "shape", "written", "expires", "size"}

// keysCommandAction lists stored keys with what their envelopes say.
func keysCommandAction(ctx context.Context, cmd *cli.Command) error {
	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	rows, err := keyRows(ctx, sess.Manager, cmd.String("prefix"))
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	now := sess.Manager.Now()
	spec := output.Spec{
		Format:  cmd.String("output"),
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Titles:  cmd.Bool("titles"),
		Color:   colorize(cmd),
		Columns: keysColumns,
		Transforms: map[string]func(any) string{
			"written": func(v any) string {
				t, _ := v.(time.Time)
				return output.Age(now, t)
			},
			"expires": func(v any) string {
				t, ok := v.(time.Time)
				if !ok {
					return "never"
				}
				return output.Age(now, t)
			},
			"size": func(v any) string {
				n, _ := v.(int)
				return output.Size(n)
			},
		},
	}

	return output.SliceDiceSpit(rows, spec, stdout(cmd))
}

// keyRows peeks at every key under prefix. Keys that can't be read still get
// a row so they can be found and removed.
func keyRows(ctx context.Context, m *cache.Manager, prefix string) ([]map[string]interface{}, error) {
	keys, err := m.Keys(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}

		row := map[string]interface{}{"key": k}
		d, ok, err := m.Peek(ctx, k)
		switch {
		case err != nil:
			log.WithField("key", k).WithError(err).Debug("unreadable entry")
			row["shape"] = "unreadable"
		case !ok:
			// Removed between listing and peeking.
			continue
		default:
			row["shape"] = d.Shape.String()
			row["size"] = len(d.Value)
			if !d.WrittenAt.IsZero() {
				row["written"] = d.WrittenAt
			}
			if deadline := d.Deadline(slotTTL(k)); !deadline.IsZero() {
				row["expires"] = deadline
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func keysCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:  "keys",
		Usage: "list stored keys",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "only keys starting with this",
			},
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "comma-separated list of filters to apply to results",
			},
			NameSpacedValueChainFlagFromConfigFile("keys", meta.ConfigSource(), &cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "comma-separated list of columns to sort the results by",
				Sources: cli.NewValueSourceChain(),
				Value:   "key",
			}),
		},
		Examples: [][2]string{
			{"petcache keys", "everything in the store"},
			{"petcache keys --prefix calendar:", "one namespace"},
			{"petcache keys -f shape=raw -s -size", "legacy entries, largest first"},
		},
		Action: keysCommandAction,
		Meta:   meta,
	}).Build()
}
