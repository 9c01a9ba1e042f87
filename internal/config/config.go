// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sqlchat configuration.
type Config struct {
	// Version of the config format
	Version string `toml:"version" json:"version"`

	Backend BackendConfig `toml:"backend" json:"backend"`
	Polling PollingConfig `toml:"polling" json:"polling"`
	History HistoryConfig `toml:"history" json:"history"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// BackendConfig locates the SQL generation service.
type BackendConfig struct {
	// BaseURL of the service (default: http://127.0.0.1:5000)
	BaseURL string `toml:"base_url" json:"base_url"`

	// QueryPath is the submission endpoint
	QueryPath string `toml:"query_path" json:"query_path"`

	// ResultPath is the result endpoint
	ResultPath string `toml:"result_path" json:"result_path"`

	// TimeoutSecs per request; 0 disables the timeout
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RequestsPerSecond throttles requests; 0 disables throttling
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// Timeout returns TimeoutSecs as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// PollingConfig bounds the result polling loop.
type PollingConfig struct {
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	IntervalMs  int `toml:"interval_ms" json:"interval_ms"`
}

// Interval returns IntervalMs as a duration.
func (p PollingConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// HistoryConfig controls transcript persistence.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// DatabasePath overrides ~/.sqlchat/history.db
	DatabasePath string `toml:"database_path" json:"database_path"`

	// MaxSessions kept before the oldest are pruned; 0 keeps everything
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	Theme          string `toml:"theme" json:"theme"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
	HighlightSQL   bool   `toml:"highlight_sql" json:"highlight_sql"`
	WatchConfig    bool   `toml:"watch_config" json:"watch_config"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"`

	// File overrides ~/.sqlchat/sqlchat.log for the TUI
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	DefaultBaseURL     = "http://127.0.0.1:5000"
	DefaultQueryPath   = "/api/query"
	DefaultResultPath  = "/api/result"
	DefaultMaxAttempts = 5
	DefaultIntervalMs  = 4000
	DefaultMaxSessions = 100

	MaxPollAttempts   = 50
	MaxPollIntervalMs = 600000
	MaxTimeoutSecs    = 3600
)

var (
	validThemes    = []string{"dark", "light", "auto"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL:    DefaultBaseURL,
			QueryPath:  DefaultQueryPath,
			ResultPath: DefaultResultPath,
		},
		Polling: PollingConfig{
			MaxAttempts: DefaultMaxAttempts,
			IntervalMs:  DefaultIntervalMs,
		},
		History: HistoryConfig{
			Enabled:     true,
			MaxSessions: DefaultMaxSessions,
		},
		UI: UIConfig{
			Theme:          "auto",
			ShowTimestamps: true,
			HighlightSQL:   true,
			WatchConfig:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sqlchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SQLCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sqlchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// HistoryDBPath returns the transcript database path.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DatabasePath != "" {
		return expandHome(c.History.DatabasePath), nil
	}
	return inConfigDir("history.db")
}

// LogFilePath returns the TUI log file path.
func (c *Config) LogFilePath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File), nil
	}
	return inConfigDir("sqlchat.log")
}

// ChatHistoryPath returns the REPL line-history file path.
func ChatHistoryPath() (string, error) {
	return inConfigDir("chat_history")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		return LoadFromPath(path)
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies env overrides and defaults, then validates.
func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# sqlchat configuration file\n")
	buf.WriteString("# Generated by sqlchat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to path as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Backend
	if u, err := url.Parse(c.Backend.BaseURL); err != nil {
		add("backend.base_url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("backend.base_url", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("backend.base_url", "missing host")
	}
	if !strings.HasPrefix(c.Backend.QueryPath, "/") {
		add("backend.query_path", "must start with '/'")
	}
	if !strings.HasPrefix(c.Backend.ResultPath, "/") {
		add("backend.result_path", "must start with '/'")
	}
	if c.Backend.TimeoutSecs < 0 || c.Backend.TimeoutSecs > MaxTimeoutSecs {
		add("backend.timeout_secs", "must be between 0 and %d", MaxTimeoutSecs)
	}
	if c.Backend.RequestsPerSecond < 0 {
		add("backend.requests_per_second", "must not be negative")
	}

	// Polling
	if c.Polling.MaxAttempts < 1 || c.Polling.MaxAttempts > MaxPollAttempts {
		add("polling.max_attempts", "must be between 1 and %d", MaxPollAttempts)
	}
	if c.Polling.IntervalMs < 0 || c.Polling.IntervalMs > MaxPollIntervalMs {
		add("polling.interval_ms", "must be between 0 and %d", MaxPollIntervalMs)
	}

	// History
	if c.History.MaxSessions < 0 {
		add("history.max_sessions", "must not be negative")
	}

	// UI
	if !contains(validThemes, c.UI.Theme) {
		add("ui.theme", "must be one of %s", strings.Join(validThemes, ", "))
	}

	// Logging
	if !contains(validLogLevels, c.Logging.Level) {
		add("logging.level", "must be one of %s", strings.Join(validLogLevels, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for empty string fields and a zero
// attempt count. Numeric zeros that are meaningful (timeout, interval,
// throttle, max sessions) are left alone.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.QueryPath == "" {
		c.Backend.QueryPath = defaults.Backend.QueryPath
	}
	if c.Backend.ResultPath == "" {
		c.Backend.ResultPath = defaults.Backend.ResultPath
	}
	if c.Polling.MaxAttempts == 0 {
		c.Polling.MaxAttempts = defaults.Polling.MaxAttempts
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SQLCHAT_BACKEND_URL: overrides backend.base_url
//   - SQLCHAT_POLL_ATTEMPTS: overrides polling.max_attempts
//   - SQLCHAT_POLL_INTERVAL_MS: overrides polling.interval_ms
//   - SQLCHAT_LOG_LEVEL: overrides logging.level
//   - SQLCHAT_HISTORY_DB: overrides history.database_path
//   - SQLCHAT_THEME: overrides ui.theme
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SQLCHAT_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("SQLCHAT_POLL_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Polling.MaxAttempts = n
		}
	}
	if v := os.Getenv("SQLCHAT_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Polling.IntervalMs = n
		}
	}
	if v := os.Getenv("SQLCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SQLCHAT_HISTORY_DB"); v != "" {
		c.History.DatabasePath = v
	}
	if v := os.Getenv("SQLCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "polling.interval_ms").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tag or normalized field name.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := findField(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func findField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	normalized := normalizeFieldName(name)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := strings.Split(sf.Tag.Get("toml"), ",")[0]
		if tag == name || strings.EqualFold(sf.Name, normalized) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			name := prefix + strings.Split(sf.Tag.Get("toml"), ",")[0]
			if sf.Type.Kind() == reflect.Struct {
				walk(sf.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a copy of the configuration. Config holds no maps or
// slices, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Global will not load
// from disk afterwards. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
