package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gpsfix/internal/config"
)

// applyOverrides folds command-line log flags into cfg.
func (g *Globals) applyOverrides(cfg *config.Config) {
	if g.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(g.LogLevel)
	}
	if g.LogFormat != "" {
		cfg.Log.Format = strings.ToLower(g.LogFormat)
	}
}

func (g *Globals) loadConfig() (config.Config, error) {
	var cfg config.Config
	if strings.TrimSpace(g.Config) == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return config.Config{}, err
		}
	}
	g.applyOverrides(&cfg)
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		return config.Config{}, errors.Errorf("log format must be 'console' or 'json' (got %q)", cfg.Log.Format)
	}
	return cfg, nil
}

// newLogger builds the process logger. Output goes to w and, when tee is
// non-nil, also to tee as JSON lines.
func newLogger(lc config.LogConfig, w io.Writer, tee io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		return zerolog.Logger{}, errors.Wrapf(err, "log.level %q", lc.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if lc.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if tee != nil {
		out = zerolog.MultiLevelWriter(out, tee)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func stderrLogger(lc config.LogConfig) (zerolog.Logger, error) {
	return newLogger(lc, os.Stderr, nil)
}
