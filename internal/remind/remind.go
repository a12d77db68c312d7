// Package remind periodically checks for due words and notifies the user.
package remind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/verte-zerg/vocadrill/internal/logging"
)

// Defaults.
const (
	DefaultEvery     = time.Hour
	DefaultFromHour  = 9
	DefaultUntilHour = 21
)

// Counter counts words due at a point in time.
type Counter interface {
	CountDue(ctx context.Context, now time.Time) (int, error)
}

// Notifier delivers a reminder.
type Notifier interface {
	Notify(ctx context.Context, due int) error
}

// Config controls the reminder job.
type Config struct {
	Every     time.Duration
	FromHour  int
	UntilHour int
	Now       func() time.Time
}

// DefaultConfig returns hourly checks between 9:00 and 21:59.
func DefaultConfig() Config {
	return Config{Every: DefaultEvery, FromHour: DefaultFromHour, UntilHour: DefaultUntilHour}
}

// Validate checks the interval and hour bounds.
func (c Config) Validate() error {
	if c.Every < time.Minute {
		return fmt.Errorf("reminder interval must be at least 1m, got %s", c.Every)
	}
	if c.FromHour < 0 || c.FromHour > 23 || c.UntilHour < 0 || c.UntilHour > 23 {
		return errors.New("reminder hours must be between 0 and 23")
	}
	return nil
}

// WithinHours reports whether hour lies in [from, until]. A window with
// from > until wraps past midnight.
func WithinHours(hour, from, until int) bool {
	if from <= until {
		return hour >= from && hour <= until
	}
	return hour >= from || hour <= until
}

// Reminder runs the due-word check on a gocron schedule.
type Reminder struct {
	counter  Counter
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	sched    *gocron.Scheduler
}

// New returns a reminder. A nil logger discards output.
func New(counter Counter, notifier Notifier, cfg Config, log *slog.Logger) (*Reminder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Reminder{
		counter:  counter,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		sched:    gocron.NewScheduler(time.Local),
	}, nil
}

// Check counts due words and notifies when inside the allowed hours and at
// least one word is due. It returns the due count.
func (r *Reminder) Check(ctx context.Context) (int, bool, error) {
	now := r.cfg.Now()
	if !WithinHours(now.Hour(), r.cfg.FromHour, r.cfg.UntilHour) {
		r.log.Debug("outside reminder hours, skipping", "hour", now.Hour(),
			"from", r.cfg.FromHour, "until", r.cfg.UntilHour)
		return 0, false, nil
	}
	due, err := r.counter.CountDue(ctx, now)
	if err != nil {
		return 0, false, fmt.Errorf("count due words: %w", err)
	}
	if due == 0 {
		r.log.Debug("no words due")
		return 0, false, nil
	}
	if err := r.notifier.Notify(ctx, due); err != nil {
		return due, false, fmt.Errorf("notify: %w", err)
	}
	r.log.Info("reminder sent", "due", due)
	return due, true, nil
}

// Run checks immediately, then on every interval until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	job := func() {
		if _, _, err := r.Check(ctx); err != nil {
			r.log.Error("reminder check failed", "error", err)
		}
	}
	if _, err := r.sched.Every(r.cfg.Every).SingletonMode().Do(job); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	r.sched.StartAsync()
	r.log.Info("reminder started", "every", r.cfg.Every.String())
	<-ctx.Done()
	r.sched.Stop()
	r.log.Info("reminder stopped")
	return nil
}

// Message renders the reminder text.
func Message(due int) string {
	if due == 1 {
		return "1 word is due for review"
	}
	return fmt.Sprintf("%d words are due for review", due)
}

// WriterNotifier prints reminders to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify writes the reminder line.
func (n WriterNotifier) Notify(_ context.Context, due int) error {
	_, err := fmt.Fprintf(n.W, "%s  %s\n", time.Now().Format("15:04"), Message(due))
	return err
}

// CommandNotifier runs an external command such as notify-send with the
// title and message appended as arguments.
type CommandNotifier struct {
	Command string
}

// Notify runs the command.
func (n CommandNotifier) Notify(ctx context.Context, due int) error {
	parts := strings.Fields(n.Command)
	if len(parts) == 0 {
		return errors.New("notify command is empty")
	}
	args := append(parts[1:], "vocadrill", Message(due))
	out, err := exec.CommandContext(ctx, parts[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", parts[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
