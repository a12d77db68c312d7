package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvDB       = "VOCADRILL_DB"
	EnvLogLevel = "VOCADRILL_LOG_LEVEL"
	EnvConfig   = "VOCADRILL_CONFIG"
)

// LoadEnv reads .env files from the config directory and the working
// directory, in that order. Variables already set in the process win, and a
// value from the first file wins over later ones. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{filepath.Join(ConfigDir(), ".env"), ".env"}
	}
	for _, path := range paths {
		vals, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range vals {
			if _, ok := os.LookupEnv(k); ok {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ConfigPath returns VOCADRILL_CONFIG or the default config path.
func ConfigPath() string {
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	return DefaultConfigPath()
}
