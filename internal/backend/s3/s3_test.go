// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/petcache/internal/store"
)

// fakeAPI is an in-memory bucket.
type fakeAPI struct {
	mu          sync.Mutex
	objects     map[string]string
	deleteCalls int
	failGet     error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string]string{}}
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	v, ok := f.objects[awsv2.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(strings.NewReader(v))}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[awsv2.ToString(in.Key)] = string(b)
	f.mu.Unlock()
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3v2.DeleteObjectInput, _ ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, awsv2.ToString(in.Key))
	f.mu.Unlock()
	return &s3v2.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObjects(_ context.Context, in *s3v2.DeleteObjectsInput, _ ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if len(in.Delete.Objects) > maxDeleteBatch {
		return nil, fmt.Errorf("too many keys: %d", len(in.Delete.Objects))
	}
	for _, o := range in.Delete.Objects {
		delete(f.objects, awsv2.ToString(o.Key))
	}
	return &s3v2.DeleteObjectsOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, in *s3v2.ListObjectsV2Input, _ ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, awsv2.ToString(in.Prefix)) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	out := &s3v2.ListObjectsV2Output{}
	for _, k := range names {
		out.Contents = append(out.Contents, types.Object{Key: awsv2.String(k)})
	}
	return out, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "bucket")
	assert.Error(t, err)

	_, err = New(newFakeAPI(), "")
	assert.Error(t, err)
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "petcache", want: "petcache/"},
		{in: "/petcache/", want: "petcache/"},
		{in: "devices/abc", want: "devices/abc/"},
	}
	for _, tt := range tests {
		s, err := New(newFakeAPI(), "b", WithPrefix(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.prefix, tt.in)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s, err := New(api, "bucket", WithPrefix("petcache"))
	require.NoError(t, err)

	require.NoError(t, s.SetItem(ctx, "pets:lastSelected", `"pet-123"`))
	assert.Contains(t, api.objects, "petcache/pets:lastSelected")

	v, ok, err := s.GetItem(ctx, "pets:lastSelected")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"pet-123"`, v)

	_, ok, err = s.GetItem(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RemoveItem(ctx, "pets:lastSelected"))
	require.NoError(t, s.RemoveItem(ctx, "pets:lastSelected"))
	_, ok, _ = s.GetItem(ctx, "pets:lastSelected")
	assert.False(t, ok)
}

func TestStore_GetFailureIsIO(t *testing.T) {
	api := newFakeAPI()
	api.failGet = errors.New("connection reset")
	s, _ := New(api, "bucket")

	_, _, err := s.GetItem(context.Background(), "k")
	assert.ErrorIs(t, err, store.ErrIO)
}

func TestStore_ListAndClearStayInsidePrefix(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.objects["other/keep"] = "x"

	s, _ := New(api, "bucket", WithPrefix("petcache"))
	for i := 0; i < 2500; i++ {
		require.NoError(t, s.SetItem(ctx, fmt.Sprintf("calendar:%04d", i), "{}"))
	}

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2500)
	assert.Equal(t, "calendar:0000", keys[0])

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 3, api.deleteCalls)
	assert.Equal(t, map[string]string{"other/keep": "x"}, api.objects)
}
