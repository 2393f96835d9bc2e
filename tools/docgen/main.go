// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/command"
)

// Doc generator. Walks the petcache command tree and writes, per command:
//   - docs/commands/petcache-<cmd>.md
//   - docs/man/share/man1/petcache-<cmd>.1 via md2man
//   - docs/tldr/petcache-<cmd>.md from the command's examples

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	app, err := command.InitApp(context.Background(), []string{"petcache"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	n, err := generate(app, repoRoot, writeOnlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}
	if n == 0 {
		fatalf("no documented commands found")
	}
}

// generate writes the docs for every visible subcommand of app and returns
// how many it processed.
func generate(app *cli.Command, repoRoot string, onlyIfChanged bool) (int, error) {
	dirs := map[string]string{
		"md":   filepath.Join(repoRoot, "docs", "commands"),
		"man":  filepath.Join(repoRoot, "docs", "man", "share", "man1"),
		"tldr": filepath.Join(repoRoot, "docs", "tldr"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir: %w", err)
		}
	}

	var processed int
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}
		name := app.Name + "-" + cmd.Name

		md := renderMarkdown(app.Name, cmd)
		if err := writeFileIfChanged(filepath.Join(dirs["md"], name+".md"), []byte(md), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing markdown for %s: %w", cmd.Name, err)
		}

		man := md2man.Render([]byte(md))
		if err := writeFileIfChanged(filepath.Join(dirs["man"], name+".1"), man, onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", cmd.Name, err)
		}

		examples, _ := cmd.Metadata["examples"].([][2]string)
		tldr := buildTLDR(app.Name, cmd.Name, cmd.Usage, examples)
		if err := writeFileIfChanged(filepath.Join(dirs["tldr"], name+".md"), []byte(tldr), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing TLDR for %s: %w", cmd.Name, err)
		}

		processed++
	}
	return processed, nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

// renderMarkdown lays a command out in the md2man dialect: a title block,
// then NAME, SYNOPSIS, OPTIONS and EXAMPLES sections.
func renderMarkdown(root string, cmd *cli.Command) string {
	var b strings.Builder
	full := root + "-" + cmd.Name

	fmt.Fprintf(&b, "%% %s(1)\n\n", strings.ToUpper(full))

	b.WriteString("# NAME\n\n")
	fmt.Fprintf(&b, "%s - %s\n\n", full, cmd.Usage)

	b.WriteString("# SYNOPSIS\n\n")
	synopsis := "**" + root + " " + cmd.Name + "** [OPTIONS]"
	if cmd.ArgsUsage != "" {
		synopsis += " " + cmd.ArgsUsage
	}
	b.WriteString(synopsis + "\n\n")

	var opts []string
	for _, f := range cmd.Flags {
		if vf, ok := f.(cli.VisibleFlag); ok && !vf.IsVisible() {
			continue
		}
		var names []string
		for _, n := range f.Names() {
			if len(n) == 1 {
				names = append(names, "-"+n)
			} else {
				names = append(names, "--"+n)
			}
		}
		usage := ""
		if df, ok := f.(cli.DocGenerationFlag); ok {
			usage = df.GetUsage()
		}
		opts = append(opts, fmt.Sprintf("**%s**\n: %s\n", strings.Join(names, ", "), usage))
	}
	if len(opts) > 0 {
		b.WriteString("# OPTIONS\n\n")
		b.WriteString(strings.Join(opts, "\n"))
		b.WriteString("\n")
	}

	if examples, _ := cmd.Metadata["examples"].([][2]string); len(examples) > 0 {
		b.WriteString("# EXAMPLES\n\n")
		for _, ex := range examples {
			fmt.Fprintf(&b, "%s:\n\n    %s\n\n", ex[1], sanitizeCommand(ex[0]))
		}
	}

	return b.String()
}

func buildTLDR(root, cmd, short string, exs [][2]string) string {
	var b strings.Builder
	b.WriteString("# " + root + "-" + cmd + "\n\n")
	if short != "" {
		b.WriteString("> " + short + ".\n")
	} else {
		b.WriteString("> " + root + " " + cmd + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/petcache.\n\n")

	if len(exs) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`" + root + " " + cmd + " --help`\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + strings.TrimSpace(ex[1]) + ":\n\n")
		b.WriteString("`" + sanitizeCommand(ex[0]) + "`\n")
	}
	return b.String()
}

// sanitizeCommand compresses runs of whitespace.
func sanitizeCommand(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
