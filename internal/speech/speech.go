// Package speech speaks words aloud for dictation.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Speaker says text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop is a Speaker that stays silent.
type Nop struct{}

// Speak does nothing.
func (Nop) Speak(context.Context, string) error { return nil }

// Command speaks through an external program such as espeak or say. The
// text is passed as the last argument.
type Command struct {
	Name string
	Args []string
}

// Parse splits a command line like "espeak -s 140". An empty line yields Nop.
func Parse(line string) Speaker {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Nop{}
	}
	return Command{Name: parts[0], Args: parts[1:]}
}

// Speak runs the command and waits for it to finish.
func (c Command) Speak(ctx context.Context, text string) error {
	if c.Name == "" {
		return errors.New("speech command is empty")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	args := append(append([]string(nil), c.Args...), text)
	if out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
