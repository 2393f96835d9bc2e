// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/meta"
)

// getCommandAction reads one key through the cache manager. Absent, expired
// and unreadable keys all print the default.
func getCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return errors.New("get takes exactly one key")
	}
	key := args[0]
	if err := KeyValidator(key); err != nil {
		return err
	}

	def := json.RawMessage("null")
	if d := cmd.String("default"); d != "" {
		if !json.Valid([]byte(d)) {
			return fmt.Errorf("--default is not valid JSON: %s", d)
		}
		def = json.RawMessage(d)
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := cache.Config[json.RawMessage]{
		Key:        key,
		Default:    def,
		Expiration: durationOrDefault(cmd, slotTTL(key)),
	}
	log.Debugf("get: %s ttl=%s", key, cfg.Expiration)

	v := cache.Get(ctx, sess.Manager, cfg)

	if p := cmd.String("path"); p != "" {
		r := gjson.GetBytes(v, p)
		if !r.Exists() {
			v = json.RawMessage("null")
		} else {
			v = json.RawMessage(r.Raw)
		}
	}

	return emitValue(stdout(cmd), cmd.String("output"), v)
}

func getCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "get",
		Usage:     "read a key",
		ArgsUsage: "KEY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "default",
				Usage: "JSON printed when the key has no live value",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "gjson path selecting part of the value",
			},
			newTTLFlag(),
		},
		Examples: [][2]string{
			{"petcache get pets:lastSelected", "last selected pet"},
			{"petcache get user:preferences --path theme", "one field of a stored object"},
			{`petcache get calendar:filters --default '{}' -o yaml`, "filters as YAML, {} when unset"},
		},
		Action: getCommandAction,
		Meta:   meta,
	}).Build()
}
