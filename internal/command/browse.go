// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/petcache/internal/browse"
	"github.com/staranto/petcache/internal/meta"
)

func browseCommandAction(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("browse needs a terminal")
	}

	sess, err := OpenSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	p := tea.NewProgram(browse.New(ctx, sess.Manager), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func browseCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:  "browse",
		Usage: "interactive key browser",
		Examples: [][2]string{
			{"petcache browse", "walk the local store"},
			{"petcache browse --store s3 --bucket pet-health-state", "walk a device backup"},
		},
		Action: browseCommandAction,
		Meta:   meta,
	}).Build()
}
