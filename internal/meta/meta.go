// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/petcache/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Env     config.Env
	Context context.Context
}

// ConfigSource is the config file flags read their YAML values from. Empty
// when there is no config file.
func (m Meta) ConfigSource() string {
	return m.Config.Source
}
