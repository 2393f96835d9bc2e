// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/envelope"
	"github.com/staranto/petcache/internal/meta"
	"github.com/staranto/petcache/internal/output"
)

var inspectFields = []string{"key", "shape", "writtenAt", "ttl", "expiresAt", "expired", "value"}

// inspectCommandAction decodes one stored envelope without going through the
// in-memory cache.
func inspectCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return errors.New("inspect takes exactly one key")
	}
	key := args[0]
	if err := KeyValidator(key); err != nil {
		return err
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	d, ok, err := sess.Manager.Peek(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	doc, err := inspectDoc(key, d, sess.Manager.Now(), slotTTL(key))
	if err != nil {
		return err
	}

	format := cmd.String("output")
	if format == "json" || format == "yaml" {
		return output.Emit(stdout(cmd), format, doc)
	}

	rows := make([]map[string]interface{}, 0, len(inspectFields))
	for _, f := range inspectFields {
		v := doc[f]
		if b, ok := v.(bool); ok {
			v = strconv.FormatBool(b)
		}
		rows = append(rows, map[string]interface{}{"field": f, "value": v})
	}
	output.TableWriter(rows, output.Spec{Columns: []string{"field", "value"}}, stdout(cmd))
	return nil
}

func inspectDoc(key string, d envelope.Decoded, now time.Time, ttl time.Duration) (map[string]interface{}, error) {
	var value any
	if err := json.Unmarshal(d.Value, &value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	doc := map[string]interface{}{
		"key":       key,
		"shape":     d.Shape.String(),
		"writtenAt": nil,
		"ttl":       nil,
		"expiresAt": nil,
		"expired":   d.Expired(now, ttl),
		"value":     value,
	}
	if !d.WrittenAt.IsZero() {
		doc["writtenAt"] = d.WrittenAt.UTC()
	}
	if d.TTL > 0 {
		doc["ttl"] = d.TTL.String()
	}
	if deadline := d.Deadline(ttl); !deadline.IsZero() {
		doc["expiresAt"] = deadline.UTC()
	}
	return doc, nil
}

func inspectCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "inspect",
		Usage:     "show a key's stored envelope",
		ArgsUsage: "KEY",
		Examples: [][2]string{
			{"petcache inspect pets:lastSelected", "when it was written and when it expires"},
			{"petcache inspect user:preferences -o json", "as JSON"},
		},
		Action: inspectCommandAction,
		Meta:   meta,
	}).Build()
}
