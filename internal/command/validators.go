// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/namespace"
	"github.com/staranto/petcache/internal/output"
	"github.com/staranto/petcache/internal/store"
)

// GlobalFlagsValidator checks flag combinations no single validator can see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if store.Kind(c.String("store")) == store.KindS3 && c.String("bucket") == "" {
		return errors.New("--store=s3 requires --bucket")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func MustBeTrueValidator(value any) error {
	if !value.(bool) {
		return errors.New("must be true")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

func StoreKindValidator(value any) error {
	if !slices.Contains(store.Kinds, store.Kind(value.(string))) {
		return fmt.Errorf("must be one of %v", store.Kinds)
	}
	return nil
}

func CompressionValidator(value any) error {
	level := value.(int)
	if level < 0 || level > 22 {
		return errors.New("must be between 0 (off) and 22")
	}
	return nil
}

// KeyValidator checks every positional key.
func KeyValidator(keys ...string) error {
	if len(keys) == 0 {
		return errors.New("a key is required")
	}
	for _, k := range keys {
		if err := namespace.Validate(k); err != nil {
			return err
		}
	}
	return nil
}
