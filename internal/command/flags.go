// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// Flags hold parse state, so every command gets fresh instances.

func newExamplesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "examples",
		Usage:       "show example invocations",
		HideDefault: true,
	}
}

func newTTLFlag() *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:  "ttl",
		Usage: "expiration, e.g. 720h. Defaults to the slot's TTL for well-known keys",
	}
}

// NewGlobalFlags returns the flags every command carries. params[0] is the
// command name, used to namespace config file lookups; params[1] is the
// config file.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns, path := params[0], ""
	if len(params) > 1 {
		path = params[1]
	}

	flags = []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "store",
			Usage: "durable store: local, memory or s3",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_CACHE"),
			),
			Value: "local",
			Validator: func(value string) error {
				return FlagValidators(value, StoreKindValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "dir",
			Usage: "local store directory",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_DIR"),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		&cli.IntFlag{
			Name:  "compress",
			Usage: "zstd level for new local entries, 0 is off",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_COMPRESS"),
				yaml.YAML(ns+".compress", altsrc.StringSourcer(path)),
				yaml.YAML("compress", altsrc.StringSourcer(path)),
			),
			Validator: func(value int) error {
				return FlagValidators(value, CompressionValidator)
			},
		},
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "bucket",
			Usage: "s3 bucket",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_BUCKET"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "s3 key prefix the store lives under",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_S3_PREFIX"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "region",
			Usage: "aws region",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_REGION"),
				cli.EnvVar("AWS_REGION"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:  "profile",
			Usage: "aws shared config profile",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_PROFILE"),
				cli.EnvVar("AWS_PROFILE"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
			Name:   "endpoint",
			Usage:  "s3 endpoint override, e.g. for minio",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_S3_ENDPOINT"),
			),
		}),
		&cli.StringFlag{
			Name:  "passphrase",
			Usage: "seal values at rest with this passphrase",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PETCACHE_PASSPHRASE"),
			),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(path)),
				yaml.YAML("output", altsrc.StringSourcer(path)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(path)),
				yaml.YAML("color", altsrc.StringSourcer(path)),
			),
			Value: false,
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(path)),
				yaml.YAML("titles", altsrc.StringSourcer(path)),
			),
			Value: true,
		},
		newExamplesFlag(),
	}

	return
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain, after any env sources.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// durationOrDefault is --ttl when given, else def.
func durationOrDefault(cmd *cli.Command, def time.Duration) time.Duration {
	if cmd.IsSet("ttl") {
		return cmd.Duration("ttl")
	}
	return def
}
