// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import "github.com/caarlos0/env/v11"

// Env is the process environment petcache reads.
type Env struct {
	// Cfg points at a config file, bypassing the standard search.
	Cfg string `env:"PETCACHE_CFG"`
	// Log is the apex log level name.
	Log string `env:"PETCACHE_LOG" envDefault:"ERROR"`
	// Dir overrides the local store directory.
	Dir string `env:"PETCACHE_DIR"`
	// Cache is the store kind used when --store isn't given.
	Cache string `env:"PETCACHE_CACHE" envDefault:"local"`
}

func LoadEnv() (Env, error) {
	return env.ParseAs[Env]()
}
