// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package s3 is a durable store kept in an S3 bucket. Every key is an object
// beneath a fixed prefix, and the prefix is the whole store: Clear removes
// everything under it.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/staranto/petcache/internal/store"
)

// maxDeleteBatch is the most keys DeleteObjects accepts per call.
const maxDeleteBatch = 1000

// API is the part of the S3 client the store needs.
type API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3v2.DeleteObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3v2.DeleteObjectsInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error)
	s3v2.ListObjectsV2APIClient
}

type Store struct {
	api    API
	bucket string
	prefix string
}

var _ store.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithPrefix scopes the store to objects beneath prefix. A trailing slash is
// added when missing.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		prefix = strings.Trim(prefix, "/")
		if prefix != "" {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// New returns a Store over bucket using api.
func New(api API, bucket string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("s3 store requires a client")
	}
	if bucket == "" {
		return nil, errors.New("s3 store requires a bucket")
	}

	s := &Store{api: api, bucket: bucket}
	for _, opt := range opts {
		opt(s)
	}

	log.Debugf("s3 store at s3://%s/%s", s.bucket, s.prefix)
	return s, nil
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key
}

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	out, err := s.api.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", false, nil
		}
		return "", false, store.IOError("get", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, store.IOError("read", key, err)
	}
	return string(data), true, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.api.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return store.IOError("put", key, err)
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3v2.DeleteObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.objectKey(key)),
	})
	if err != nil {
		return store.IOError("delete", key, err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string

	p := s3v2.NewListObjectsV2Paginator(s.api, &s3v2.ListObjectsV2Input{
		Bucket: awsv2.String(s.bucket),
		Prefix: awsv2.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, store.IOError("list", "", err)
		}
		for _, obj := range page.Contents {
			k := strings.TrimPrefix(awsv2.ToString(obj.Key), s.prefix)
			if k == "" {
				continue
			}
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (s *Store) MultiRemove(ctx context.Context, keys []string) error {
	var errs []error

	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: awsv2.String(s.objectKey(k))})
		}

		out, err := s.api.DeleteObjects(ctx, &s3v2.DeleteObjectsInput{
			Bucket: awsv2.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: awsv2.Bool(true)},
		})
		if err != nil {
			errs = append(errs, store.IOError("delete batch", "", err))
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, store.IOError("delete", strings.TrimPrefix(awsv2.ToString(e.Key), s.prefix),
				fmt.Errorf("%s: %s", awsv2.ToString(e.Code), awsv2.ToString(e.Message))))
		}
	}

	return errors.Join(errs...)
}

func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return err
	}
	log.Debugf("clearing %d objects from s3://%s/%s", len(keys), s.bucket, s.prefix)
	return s.MultiRemove(ctx, keys)
}

func (s *Store) Close() error {
	return nil
}
