package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/config"
	"github.com/verte-zerg/vocadrill/internal/logging"
	"github.com/verte-zerg/vocadrill/internal/store"
)

// app holds what every command needs: the file config, a logger and the store.
type app struct {
	cfg     config.FileConfig
	log     *slog.Logger
	st      *store.Store
	closers []func() error
}

// openApp loads .env and the config file, builds the logger and opens the
// store. With toFile set the logger writes to the log file so the alt screen
// stays clean.
func openApp(cmd *cobra.Command, toFile bool) (*app, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	fileCfg, err := config.LoadConfig(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: fileCfg}

	level, err := logging.ParseLevel(resolveLogLevel(cmd, fileCfg))
	if err != nil {
		return nil, err
	}
	if toFile {
		path := config.DefaultLogPath()
		if fileCfg.Log.File != nil && strings.TrimSpace(*fileCfg.Log.File) != "" {
			path = *fileCfg.Log.File
		}
		logger, closeLog, err := logging.OpenFile(path, level)
		if err != nil {
			return nil, err
		}
		a.log = logger
		a.closers = append(a.closers, closeLog)
	} else {
		a.log = logging.New(os.Stderr, level)
	}

	st, err := store.Open(config.DefaultDBPath(), store.WithLogger(a.log))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a.st = st
	a.closers = append([]func() error{st.Close}, a.closers...)
	return a, nil
}

// resolveLogLevel prefers the flag, then VOCADRILL_LOG_LEVEL, then the file.
func resolveLogLevel(cmd *cobra.Command, fileCfg config.FileConfig) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		return v
	}
	if fileCfg.Log.Level != nil {
		return *fileCfg.Log.Level
	}
	return logLevel
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logErrf("failed to close: %v\n", err)
		}
	}
	a.closers = nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
