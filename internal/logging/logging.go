// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process logger: logrus to stdout, plus a
// rotated log file when one is configured.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from cfg. The returned Closer releases the log file
// and must be closed on shutdown.
func New(cfg types.LogConfig, stdout io.Writer) (*log.Logger, io.Closer, error) {
	logger := log.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	case FormatJSON:
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want %s or %s)", cfg.Format, FormatText, FormatJSON)
	}

	if stdout == nil {
		stdout = os.Stdout
	}
	if cfg.File == "" {
		logger.SetOutput(stdout)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(stdout, rotator))
	return logger, rotator, nil
}

// Component returns an entry tagged with the component name.
func Component(logger log.FieldLogger, name string) *log.Entry {
	return logger.WithField("component", name)
}
