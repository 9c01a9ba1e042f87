// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SQLCHAT_HOME", dir)
	for _, key := range []string{
		"SQLCHAT_BACKEND_URL", "SQLCHAT_POLL_ATTEMPTS", "SQLCHAT_POLL_INTERVAL_MS",
		"SQLCHAT_LOG_LEVEL", "SQLCHAT_HISTORY_DB", "SQLCHAT_THEME",
	} {
		t.Setenv(key, "")
	}
	ResetGlobalForTesting()
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	_ = Global()

	custom := Default()
	custom.Backend.BaseURL = "http://custom:9000"
	SetGlobal(custom)

	if got := Global().Backend.BaseURL; got != "http://custom:9000" {
		t.Errorf("Global().Backend.BaseURL = %q, want custom", got)
	}
}

func TestConfig_SetGlobalSkipsDiskLoad(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "this is = = not toml")

	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)

	assert.Same(t, custom, Global())
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Backend.BaseURL = "http://other:1"
	clone.Polling.MaxAttempts = 9

	assert.Equal(t, Default().Backend.BaseURL, cfg.Backend.BaseURL)
	assert.Equal(t, DefaultMaxAttempts, cfg.Polling.MaxAttempts)
	assert.NotSame(t, cfg, clone)
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.QueryPath != "/api/query" || cfg.Backend.ResultPath != "/api/result" {
		t.Errorf("paths = %q, %q", cfg.Backend.QueryPath, cfg.Backend.ResultPath)
	}
	if cfg.Polling.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Polling.MaxAttempts)
	}
	if cfg.Polling.Interval() != 4*time.Second {
		t.Errorf("Interval() = %v, want 4s", cfg.Polling.Interval())
	}
	if cfg.Backend.Timeout() != 0 {
		t.Errorf("Timeout() = %v, want 0", cfg.Backend.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialTOMLKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[backend]
base_url = "http://localhost:6001/"

[polling]
interval_ms = 0
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:6001", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/query", cfg.Backend.QueryPath)
	assert.Equal(t, 5, cfg.Polling.MaxAttempts)
	assert.Equal(t, 0, cfg.Polling.IntervalMs, "zero interval is meaningful")
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"polling":{"max_attempts":3}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Polling.MaxAttempts)
	assert.Equal(t, 4000, cfg.Polling.IntervalMs)
}

func TestLoad_TOMLWinsOverJSON(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[polling]\nmax_attempts = 7\n")
	writeFile(t, filepath.Join(dir, "config.json"), `{"polling":{"max_attempts":3}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Polling.MaxAttempts)
}

func TestLoad_InvalidFileFails(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[polling]\nmax_attempts = 500\n")

	_, err := Load()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "polling.max_attempts", verrs[0].Field)
}

func TestLoadTOML_FixesPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = \"1\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SQLCHAT_BACKEND_URL", "http://env:6001")
	t.Setenv("SQLCHAT_POLL_ATTEMPTS", "2")
	t.Setenv("SQLCHAT_POLL_INTERVAL_MS", "not-a-number")
	t.Setenv("SQLCHAT_LOG_LEVEL", "DEBUG")
	t.Setenv("SQLCHAT_HISTORY_DB", "/tmp/h.db")
	t.Setenv("SQLCHAT_THEME", "light")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env:6001", cfg.Backend.BaseURL)
	assert.Equal(t, 2, cfg.Polling.MaxAttempts)
	assert.Equal(t, 4000, cfg.Polling.IntervalMs, "unparseable override ignored")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/h.db", cfg.History.DatabasePath)
	assert.Equal(t, "light", cfg.UI.Theme)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"https ok", func(c *Config) { c.Backend.BaseURL = "https://sql.example.com" }, ""},
		{"zero interval ok", func(c *Config) { c.Polling.IntervalMs = 0 }, ""},
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"no host", func(c *Config) { c.Backend.BaseURL = "http://" }, "backend.base_url"},
		{"relative query path", func(c *Config) { c.Backend.QueryPath = "api/query" }, "backend.query_path"},
		{"relative result path", func(c *Config) { c.Backend.ResultPath = "api/result" }, "backend.result_path"},
		{"negative timeout", func(c *Config) { c.Backend.TimeoutSecs = -1 }, "backend.timeout_secs"},
		{"negative rps", func(c *Config) { c.Backend.RequestsPerSecond = -1 }, "backend.requests_per_second"},
		{"zero attempts", func(c *Config) { c.Polling.MaxAttempts = 0 }, "polling.max_attempts"},
		{"too many attempts", func(c *Config) { c.Polling.MaxAttempts = 51 }, "polling.max_attempts"},
		{"negative interval", func(c *Config) { c.Polling.IntervalMs = -5 }, "polling.interval_ms"},
		{"huge interval", func(c *Config) { c.Polling.IntervalMs = 600001 }, "polling.interval_ms"},
		{"negative sessions", func(c *Config) { c.History.MaxSessions = -1 }, "history.max_sessions"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got := errs.Error(); got != "a: bad; b: worse" {
		t.Errorf("Error() = %q", got)
	}
}

// =============================================================================
// GET / SET
// =============================================================================

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("polling.interval_ms")
	require.NoError(t, err)
	assert.Equal(t, 4000, v)

	require.NoError(t, cfg.Set("polling.interval_ms", "250"))
	assert.Equal(t, 250, cfg.Polling.IntervalMs)

	require.NoError(t, cfg.Set("backend.base_url", "http://h:1"))
	assert.Equal(t, "http://h:1", cfg.Backend.BaseURL)

	require.NoError(t, cfg.Set("history.enabled", "false"))
	assert.False(t, cfg.History.Enabled)

	require.NoError(t, cfg.Set("backend.requests_per_second", "2.5"))
	assert.Equal(t, 2.5, cfg.Backend.RequestsPerSecond)

	require.NoError(t, cfg.Set("ui.highlight-sql", "yes"))
	assert.True(t, cfg.UI.HighlightSQL)

	require.NoError(t, cfg.Set("polling.max_attempts", 9))
	assert.Equal(t, 9, cfg.Polling.MaxAttempts)
}

func TestConfig_GetSetErrors(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("")
	assert.Error(t, err)

	_, err = cfg.Get("polling.nope")
	assert.ErrorContains(t, err, "unknown field: polling.nope")

	_, err = cfg.Get("polling")
	assert.ErrorContains(t, err, "section")

	_, err = cfg.Get("version.x")
	assert.ErrorContains(t, err, "not a struct")

	assert.Error(t, cfg.Set("polling.max_attempts", "many"))
	assert.Error(t, cfg.Set("polling.max_attempts", []string{"x"}))
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	cfg := Default()

	assert.Contains(t, keys, "backend.base_url")
	assert.Contains(t, keys, "polling.max_attempts")
	assert.Contains(t, keys, "logging.file")
	for _, key := range keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, "key %s", key)
	}
}

// =============================================================================
// SAVE AND WATCH
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Polling.MaxAttempts = 8
	cfg.UI.Theme = "dark"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveJSON_Loads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.History.MaxSessions = 3
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.History.MaxSessions)
}

func TestPaths_FollowHome(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	db, err := cfg.HistoryDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.db"), db)

	logPath, err := cfg.LogFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sqlchat.log"), logPath)

	cfg.History.DatabasePath = "/var/lib/sqlchat.db"
	db, err = cfg.HistoryDBPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/sqlchat.db", db)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 4)
	w, err := Watch(path, 40*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Polling.IntervalMs = 1500
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, 1500, got.Polling.IntervalMs)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after config change")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	var mu sync.Mutex
	calls := 0
	w, err := Watch(path, 20*time.Millisecond, func(*Config, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1\n")
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}
