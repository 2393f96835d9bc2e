// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"

	awsx "github.com/staranto/petcache/internal/aws"
	"github.com/staranto/petcache/internal/backend/local"
	"github.com/staranto/petcache/internal/backend/memory"
	"github.com/staranto/petcache/internal/backend/s3"
	"github.com/staranto/petcache/internal/backend/sealed"
	"github.com/staranto/petcache/internal/store"
)

// ErrUnknownKind is returned for a store kind New doesn't know how to build.
var ErrUnknownKind = errors.New("unknown store kind")

// Options selects and configures a durable store. Fields that don't apply to
// the chosen Kind are ignored.
type Options struct {
	Kind store.Kind

	// local
	Dir         string
	Compression int

	// s3
	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string

	// Passphrase, when set, seals every value at rest.
	Passphrase string
}

// New builds the store described by o. An empty Kind means local.
func New(ctx context.Context, o Options) (store.Store, error) {
	s, err := newStore(ctx, o)
	if err != nil || o.Passphrase == "" {
		return s, err
	}
	return sealed.New(s, o.Passphrase)
}

func newStore(ctx context.Context, o Options) (store.Store, error) {
	log.Debugf("NewStore: kind=%q dir=%q bucket=%q prefix=%q", o.Kind, o.Dir, o.Bucket, o.Prefix)

	switch o.Kind {
	case store.KindLocal, "":
		return local.New(
			local.WithDir(o.Dir),
			local.WithCompression(o.Compression),
		)
	case store.KindMemory:
		return memory.New(), nil
	case store.KindS3:
		// Check this before loading AWS config so a missing bucket fails fast.
		if o.Bucket == "" {
			return nil, errors.New("s3 store requires a bucket")
		}
		client, err := awsx.NewS3(ctx,
			awsx.WithProfile(o.Profile),
			awsx.WithRegion(o.Region),
			awsx.WithEndpoint(o.Endpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return s3.New(client, o.Bucket, s3.WithPrefix(o.Prefix))
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, o.Kind)
}
