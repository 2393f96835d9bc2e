// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/petcache/internal/command"
	"github.com/staranto/petcache/internal/config"
	mylog "github.com/staranto/petcache/internal/log"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = expandArgSets(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(command.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// expandArgSets splices named argument sets from the config file in right
// after the command name. "@name" picks <command>.<name>; without one,
// <command>.defaults is used when present.
func expandArgSets(args []string) []string {
	if len(args) < 2 {
		return args
	}

	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	out := make([]string, 0, len(args))
	out = append(out, args[:2]...)

	set := "defaults"
	var rest []string
	for _, a := range args[2:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			continue
		}
		rest = append(rest, a)
	}

	setArgs, _ := config.GetStringSlice(args[1]+"."+set, nil)
	for _, arg := range setArgs {
		out = append(out, strings.Fields(arg)...)
	}

	out = append(out, rest...)
	log.Debugf("set=%s, args=%v", set, out)
	return out
}
