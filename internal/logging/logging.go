// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures zerolog for the TUI and CLI entry points.
//
// The TUI owns the terminal, so it logs JSON lines to a file. CLI commands
// log human-readable lines to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode selects the log destination.
type Mode int

const (
	// ModeCLI writes console-formatted lines to stderr.
	ModeCLI Mode = iota
	// ModeTUI writes JSON lines to a file.
	ModeTUI
)

// Options configures Setup.
type Options struct {
	Mode  Mode
	Level string

	// File is required in ModeTUI.
	File string

	// Console overrides stderr in ModeCLI.
	Console io.Writer
}

// nopCloser is returned when Setup did not open a file.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a config level onto zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the process logger, installs it as the zerolog global, and
// returns a closer for the log file (a no-op in ModeCLI).
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	switch opts.Mode {
	case ModeTUI:
		if opts.File == "" {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log file path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		log.Logger = logger
		return logger, f, nil

	default:
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		if opts.Console != nil {
			cw.NoColor = true
		}
		logger := zerolog.New(cw).Level(level).With().Timestamp().Logger()
		log.Logger = logger
		return logger, nopCloser{}, nil
	}
}
