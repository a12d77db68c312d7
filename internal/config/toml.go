// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Weak     WeakConfig     `toml:"weak"`
	Remind   RemindConfig   `toml:"remind"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings. Nil fields keep flag values.
type PracticeConfig struct {
	Mode          *string `toml:"mode"`
	Sort          *string `toml:"sort"`
	Limit         *int    `toml:"limit"`
	Scoring       *string `toml:"scoring"`
	Strict        *bool   `toml:"strict"`
	AutoNext      *bool   `toml:"auto-next"`
	AutoNextDelay *string `toml:"auto-next-delay"`
	AutoCorrect   *bool   `toml:"auto-correct"`
	ShowAnswer    *bool   `toml:"show-answer"`
	TimeLimit     *string `toml:"time-limit"`
	Choices       *int    `toml:"choices"`
	Speak         *string `toml:"speak"`
}

// WeakConfig maps weak-word ranking settings.
type WeakConfig struct {
	Days  *int `toml:"days"`
	Limit *int `toml:"limit"`
}

// RemindConfig maps the due-word reminder job.
type RemindConfig struct {
	Every     *string `toml:"every"`
	FromHour  *int    `toml:"from-hour"`
	UntilHour *int    `toml:"until-hour"`
	Notify    *string `toml:"notify"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
