// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/meta"
)

// clearCommandAction bulk-removes a namespace, or with --all --yes, the whole
// store.
func clearCommandAction(ctx context.Context, cmd *cli.Command) error {
	prefix, all := cmd.String("prefix"), cmd.Bool("all")

	switch {
	case all && prefix != "":
		return errors.New("--all and --prefix are mutually exclusive")
	case !all && prefix == "":
		return errors.New("one of --prefix or --all is required")
	case all:
		if err := FlagValidators(cmd.Bool("yes"), MustBeTrueValidator); err != nil {
			return fmt.Errorf("--yes %w to wipe the entire store", err)
		}
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if all {
		sess.Manager.ClearAll(ctx)
		return nil
	}
	sess.Manager.ClearByPrefix(ctx, prefix)
	return nil
}

func clearCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:  "clear",
		Usage: "remove a namespace or everything",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "remove every key starting with this",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "remove every key in the store, including ones petcache didn't write",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "confirm --all",
			},
		},
		Examples: [][2]string{
			{"petcache clear --prefix calendar:", "reset the calendar view"},
			{"petcache clear --all --yes", "sign-out wipe"},
		},
		Action: clearCommandAction,
		Meta:   meta,
	}).Build()
}
