// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/meta"
)

// rmCommandAction removes keys. Absent keys are fine; store failures are
// logged by the manager.
func rmCommandAction(ctx context.Context, cmd *cli.Command) error {
	keys := cmd.Args().Slice()
	if err := KeyValidator(keys...); err != nil {
		return err
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, k := range keys {
		sess.Manager.RemoveKey(ctx, k)
	}
	return nil
}

func rmCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "rm",
		Usage:     "remove keys",
		ArgsUsage: "KEY...",
		Examples: [][2]string{
			{"petcache rm pets:lastSelected", "forget the last selected pet"},
		},
		Action: rmCommandAction,
		Meta:   meta,
	}).Build()
}
