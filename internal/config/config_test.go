// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points PETCACHE_CFG at a testdata file and resets the
// global Config so the next getter reloads it.
func setupTestConfig(t *testing.T, testdataFile string) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("PETCACHE_CFG", absPath)
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "s3", cfg.Data["store"])
				assert.Equal(t, "pet-health-state", cfg.Data["bucket"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				backend, ok := cfg.Data["backend"].(map[string]interface{})
				require.True(t, ok, "backend should be a map")
				s3, ok := backend["s3"].(map[string]interface{})
				require.True(t, ok, "s3 should be a map")
				assert.Equal(t, "us-west-2", s3["region"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "invalid yaml",
			testFile: "invalid.yaml",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_ExplicitPathWins(t *testing.T) {
	setupTestConfig(t, "simple.yaml")

	cfg, err := Load(filepath.Join("testdata", "nested.yaml"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Data, "backend")
}

func TestLoad_NoConfigFile(t *testing.T) {
	Config = Type{}
	t.Setenv("PETCACHE_CFG", "/nonexistent/path/petcache.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SearchPath(t *testing.T) {
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	home := t.TempDir()
	t.Setenv("PETCACHE_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", home)

	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(home, FileName)
	require.NoError(t, os.WriteFile(path, []byte("store: memory\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "memory", cfg.Data["store"])
}

func TestLoad_PETCACHE_CFG_IsDirectory(t *testing.T) {
	Config = Type{}
	t.Setenv("PETCACHE_CFG", "testdata")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	setupTestConfig(t, "simple.yaml")

	v, err := GetString("bucket")
	require.NoError(t, err)
	assert.Equal(t, "pet-health-state", v)

	v, err = GetString("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	_, err = GetString("missing")
	assert.Error(t, err)
}

func TestGetString_WrongType(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml")

	_, err := GetString("version")
	assert.Error(t, err)
}

func TestGetInt(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml")

	tests := []struct {
		key     string
		def     []int
		want    int
		wantErr bool
	}{
		{key: "version", want: 1},
		{key: "timeout", want: 30},
		{key: "missing", def: []int{7}, want: 7},
		{key: "missing", wantErr: true},
		{key: "name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := GetInt(tt.key, tt.def...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	b, err := GetBool("backend.local.compress")
	require.NoError(t, err)
	assert.True(t, b)

	b, err = GetBool("backend.local.missing", false)
	require.NoError(t, err)
	assert.False(t, b)

	_, err = GetBool("backend.local.dir")
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	d, err := GetDuration("cache.negative_ttl")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = GetDuration("cache.evict_timeout")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)

	d, err = GetDuration("cache.missing", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestGetDuration_Invalid(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml")

	d, err := GetDuration("ttl")
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, d)

	_, err = GetDuration("bogus_ttl")
	assert.Error(t, err)

	_, err = GetDuration("enabled")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	Config.Namespace = "backend.s3"
	v, err := GetString("region")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", v)

	Config.Namespace = "backend.local"
	v, err = GetString("region")
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", v, "falls back to the unqualified key")
}

func TestEnv(t *testing.T) {
	t.Setenv("PETCACHE_DIR", "/tmp/pc")
	t.Setenv("PETCACHE_CACHE", "s3")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pc", e.Dir)
	assert.Equal(t, "s3", e.Cache)
}

func TestEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PETCACHE_LOG", "PETCACHE_CACHE", "PETCACHE_CFG"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "ERROR", e.Log)
	assert.Equal(t, "local", e.Cache)
	assert.Empty(t, e.Cfg)
}

func TestGetStringSlice(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	got, err := GetStringSlice("keys.defaults")
	require.NoError(t, err)
	assert.Equal(t, []string{"--sort=-written"}, got)

	got, err = GetStringSlice("keys.calendar")
	require.NoError(t, err)
	assert.Equal(t, []string{"--prefix calendar:"}, got)

	got, err = GetStringSlice("keys.missing", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = GetStringSlice("cache")
	assert.Error(t, err)
}
