package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/config"
	"github.com/verte-zerg/vocadrill/internal/practice"
	"github.com/verte-zerg/vocadrill/internal/remind"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	path := config.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// The apply helpers copy a file value into target unless the flag was given.
// They report whether either source set the value.

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if value == nil {
		return false
	}
	*target = *value
	return true
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if value == nil {
		return false
	}
	*target = *value
	return true
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if value == nil {
		return false
	}
	*target = *value
	return true
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) (bool, error) {
	if cmd.Flags().Changed(name) {
		return true, nil
	}
	if value == nil {
		return false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return false, fmt.Errorf("config %s: %w", name, err)
	}
	*target = d
	return true, nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# vocadrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q          # flashcard, quiz, typing or dictation
# sort = %q             # random, newest, oldest, az or za
# limit = %d                  # Words per session (0 = all)
# scoring = "lenient"          # exact, half, partial or lenient (default depends on mode)
# strict = false               # Keep case when grading
# auto-next = false            # Move on after an answer
# auto-next-delay = %q
# auto-correct = true          # Suggest the answer for near misses
# show-answer = true           # Reveal the answer after a wrong verdict
# time-limit = "0s"            # Per-question countdown, 0 disables it
# choices = %d                  # Quiz options
# speak = "espeak -s 140"      # Text-to-speech command for dictation

[weak]
# days = %d                    # History window for recent misses
# limit = %d                  # Weak words per session

[remind]
# every = %q
# from-hour = %d
# until-hour = %d
# notify = "notify-send"       # Desktop notification command (default prints)

[log]
# level = "info"               # debug, info, warn or error
# file = ""                    # Log file used by the practice screen
`,
		defaultMode,
		defaultSort,
		defaultLimit,
		practice.DefaultAutoNextDelay.String(),
		practice.DefaultChoices,
		defaultWeakDays,
		defaultWeakLimit,
		remind.DefaultEvery.String(),
		remind.DefaultFromHour,
		remind.DefaultUntilHour,
	)
}
