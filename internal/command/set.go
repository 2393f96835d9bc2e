// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/cache"
	"github.com/staranto/petcache/internal/meta"
	"github.com/staranto/petcache/internal/output"
)

// setCommandAction writes one key through the cache manager. The write is
// the one operation whose store failure is reported.
func setCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return errors.New("set takes a key and a value")
	}
	key, value := args[0], parseValue(args[1])
	if err := KeyValidator(key); err != nil {
		return err
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if cmd.Bool("diff") {
		if err := printDiff(ctx, cmd, sess, key, value); err != nil {
			return err
		}
	}

	cfg := cache.Config[json.RawMessage]{
		Key:        key,
		Expiration: durationOrDefault(cmd, slotTTL(key)),
	}
	if err := cache.Set(ctx, sess.Manager, cfg, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	log.Debugf("set: %s ttl=%s", key, cfg.Expiration)
	return nil
}

func printDiff(ctx context.Context, cmd *cli.Command, sess *Session, key string, value json.RawMessage) error {
	var before json.RawMessage
	d, ok, err := sess.Manager.Peek(ctx, key)
	if err != nil {
		log.WithError(err).Warnf("can't read current %s; diffing against nothing", key)
	} else if ok {
		before = d.Value
	}

	delta, changed, err := output.Diff(before, value, colorize(cmd))
	if err != nil {
		return fmt.Errorf("failed to diff %s: %w", key, err)
	}
	if !changed {
		fmt.Fprintln(stdout(cmd), "no change")
		return nil
	}
	fmt.Fprint(stdout(cmd), delta)
	return nil
}

func setCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "set",
		Usage:     "write a key",
		ArgsUsage: "KEY JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "show what changes against the stored value",
			},
			newTTLFlag(),
		},
		Examples: [][2]string{
			{"petcache set pets:lastSelected pet_42", "strings don't need JSON quotes"},
			{`petcache set user:preferences '{"theme":"dark"}' --diff`, "write and show the delta"},
			{"petcache set session:token abc --ttl 1h", "expire in an hour"},
		},
		Action: setCommandAction,
		Meta:   meta,
	}).Build()
}
