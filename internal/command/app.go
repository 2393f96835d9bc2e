// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"sort"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/config"
	"github.com/staranto/petcache/internal/meta"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// A missing config file is normal; flags fall back to env and defaults.
	cfg, err := config.Load()
	if err != nil {
		log.Debugf("no config: %v", err)
	}

	meta := meta.Meta{
		Args:    args,
		Config:  cfg,
		Env:     env,
		Context: ctx,
	}

	app := &cli.Command{
		Name:    "petcache",
		Usage:   "inspect and maintain a pet-health client's persisted cache",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "petcache version info",
				HideDefault: true,
			},
		},
		HideVersion: true,
	}

	app.Commands = append(app.Commands,
		getCommandBuilder(meta),
		setCommandBuilder(meta),
		rmCommandBuilder(meta),
		keysCommandBuilder(meta),
		inspectCommandBuilder(meta),
		clearCommandBuilder(meta),
		browseCommandBuilder(meta),
		CompletionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
