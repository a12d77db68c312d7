// Package main provides the CLI entrypoint for vocadrill.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/config"
	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/pool"
	"github.com/verte-zerg/vocadrill/internal/practice"
	"github.com/verte-zerg/vocadrill/internal/scoring"
	"github.com/verte-zerg/vocadrill/internal/speech"
	"github.com/verte-zerg/vocadrill/internal/store"
	"github.com/verte-zerg/vocadrill/internal/tui"
)

const (
	defaultMode        = "typing"
	defaultSort        = "random"
	defaultLimit       = 20
	defaultWeakDays    = 7
	defaultWeakLimit   = 20
	defaultCurveWindow = 10
	defaultLogLevel    = "info"
)

var (
	logLevel string

	practiceMode          string
	practiceSet           string
	practiceSince         string
	practiceUntil         string
	practiceSort          string
	practiceLimit         int
	practiceWeak          bool
	practiceDue           bool
	practiceUnmarked      bool
	practiceMastered      bool
	practiceLearning      bool
	practiceBookmarked    bool
	practiceScoring       string
	practiceStrict        bool
	practiceTimeLimit     time.Duration
	practiceAutoNext      bool
	practiceAutoNextDelay time.Duration
	practiceAutoCorrect   bool
	practiceShowAnswer    bool
	practiceChoices       int
	practiceSpeak         string
	practiceWeakDays      int
	practiceWeakLimit     int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vocadrill",
		Short:         "TUI vocabulary trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	f := rootCmd.Flags()
	f.StringVar(&practiceMode, "mode", defaultMode, "practice mode (flashcard, quiz, typing, dictation)")
	f.StringVar(&practiceSet, "set", "", "only words from this set")
	f.StringVar(&practiceSince, "since", "", "only words added on or after this date (YYYY-MM-DD)")
	f.StringVar(&practiceUntil, "until", "", "only words added on or before this date (YYYY-MM-DD)")
	f.StringVar(&practiceSort, "sort", defaultSort, "word order (random, newest, oldest, az, za)")
	f.IntVar(&practiceLimit, "limit", defaultLimit, "words per session (0 = all)")
	f.BoolVar(&practiceWeak, "weak", false, "practice weak words, most urgent first")
	f.BoolVar(&practiceDue, "due", false, "practice words due for review")
	f.BoolVar(&practiceUnmarked, "include-unmarked", true, "include words neither mastered nor bookmarked")
	f.BoolVar(&practiceMastered, "include-mastered", true, "include mastered words")
	f.BoolVar(&practiceLearning, "include-learning", true, "include words not yet mastered")
	f.BoolVar(&practiceBookmarked, "include-bookmarked", true, "include bookmarked words")
	f.StringVar(&practiceScoring, "scoring", "", "answer scoring (exact, half, partial, lenient; default depends on mode)")
	f.BoolVar(&practiceStrict, "strict", false, "keep case when grading")
	f.DurationVar(&practiceTimeLimit, "time-limit", 0, "per-question countdown (0 disables)")
	f.BoolVar(&practiceAutoNext, "auto-next", false, "move on automatically after an answer")
	f.DurationVar(&practiceAutoNextDelay, "auto-next-delay", practice.DefaultAutoNextDelay, "delay before moving on")
	f.BoolVar(&practiceAutoCorrect, "auto-correct", false, "suggest the answer for near misses")
	f.BoolVar(&practiceShowAnswer, "show-answer", true, "reveal the answer after a wrong verdict")
	f.IntVar(&practiceChoices, "choices", practice.DefaultChoices, "options per quiz question")
	f.StringVar(&practiceSpeak, "speak", "", "text-to-speech command for dictation")
	f.IntVar(&practiceWeakDays, "weak-days", defaultWeakDays, "history window in days for --weak")
	f.IntVar(&practiceWeakLimit, "weak-limit", defaultWeakLimit, "number of weak words for --weak")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newBookmarkCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newWeakCmd())
	rootCmd.AddCommand(newDueCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRemindCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// practiceRun is a resolved practice invocation.
type practiceRun struct {
	mode     model.Mode
	settings practice.Settings
	sel      selection
	speak    string
}

// resolvePractice merges the file config into the flag values and builds the
// session settings. Mode defaults are only overridden by values that were set.
func resolvePractice(cmd *cobra.Command, fileCfg config.FileConfig, now time.Time) (practiceRun, error) {
	pc := fileCfg.Practice
	applyStringConfig(cmd, "mode", &practiceMode, pc.Mode)
	mode, err := model.ParseMode(practiceMode)
	if err != nil {
		return practiceRun{}, fmt.Errorf("invalid --mode: %w", err)
	}
	s := practice.DefaultSettings(mode)
	// Order comes from the selection.
	s.Shuffle = false

	if applyStringConfig(cmd, "scoring", &practiceScoring, pc.Scoring) && practiceScoring != "" {
		sm, err := scoring.ParseMode(practiceScoring)
		if err != nil {
			return practiceRun{}, fmt.Errorf("invalid --scoring: %w", err)
		}
		s.Scoring = sm
	}
	if applyBoolConfig(cmd, "strict", &practiceStrict, pc.Strict) {
		s.StrictMode = practiceStrict
	}
	if applyBoolConfig(cmd, "auto-next", &practiceAutoNext, pc.AutoNext) {
		s.AutoNext = practiceAutoNext
	}
	if applyBoolConfig(cmd, "auto-correct", &practiceAutoCorrect, pc.AutoCorrect) {
		s.AutoCorrect = practiceAutoCorrect
	}
	if applyBoolConfig(cmd, "show-answer", &practiceShowAnswer, pc.ShowAnswer) {
		s.ShowAnswer = practiceShowAnswer
	}
	if applyIntConfig(cmd, "choices", &practiceChoices, pc.Choices) {
		s.Choices = practiceChoices
	}
	set, err := applyDurationConfig(cmd, "auto-next-delay", &practiceAutoNextDelay, pc.AutoNextDelay)
	if err != nil {
		return practiceRun{}, err
	}
	if set {
		s.AutoNextDelay = practiceAutoNextDelay
	}
	set, err = applyDurationConfig(cmd, "time-limit", &practiceTimeLimit, pc.TimeLimit)
	if err != nil {
		return practiceRun{}, err
	}
	if set {
		s.TimeLimit = practiceTimeLimit
	}
	if err := s.Validate(); err != nil {
		return practiceRun{}, err
	}

	applyStringConfig(cmd, "speak", &practiceSpeak, pc.Speak)
	applyIntConfig(cmd, "limit", &practiceLimit, pc.Limit)
	applyIntConfig(cmd, "weak-days", &practiceWeakDays, fileCfg.Weak.Days)
	applyIntConfig(cmd, "weak-limit", &practiceWeakLimit, fileCfg.Weak.Limit)
	sortSet := applyStringConfig(cmd, "sort", &practiceSort, pc.Sort)
	order, err := pool.ParseOrder(practiceSort)
	if err != nil {
		return practiceRun{}, fmt.Errorf("invalid --sort: %w", err)
	}

	if practiceLimit < 0 {
		return practiceRun{}, fmt.Errorf("--limit must be >= 0")
	}
	if practiceWeakDays < 0 || practiceWeakLimit < 0 {
		return practiceRun{}, fmt.Errorf("--weak-days and --weak-limit must be >= 0")
	}
	if practiceWeak && practiceDue {
		return practiceRun{}, fmt.Errorf("--weak and --due cannot be combined")
	}

	sel := selection{
		SetID: practiceSet,
		Include: pool.Include{
			Unmarked:   practiceUnmarked,
			Mastered:   practiceMastered,
			Learning:   practiceLearning,
			Bookmarked: practiceBookmarked,
		},
		Sort:      order,
		KeepOrder: (practiceWeak || practiceDue) && !sortSet,
		Limit:     practiceLimit,
		Weak:      practiceWeak,
		Due:       practiceDue,
		WeakDays:  practiceWeakDays,
		WeakLimit: practiceWeakLimit,
		Now:       now,
	}
	if sel.From, err = parseDay(practiceSince, false); err != nil {
		return practiceRun{}, fmt.Errorf("invalid --since value: %w", err)
	}
	if sel.To, err = parseDay(practiceUntil, true); err != nil {
		return practiceRun{}, fmt.Errorf("invalid --until value: %w", err)
	}
	if !sel.From.IsZero() && !sel.To.IsZero() && sel.To.Before(sel.From) {
		return practiceRun{}, fmt.Errorf("--until must not be before --since")
	}

	return practiceRun{mode: mode, settings: s, sel: sel, speak: practiceSpeak}, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	now := time.Now()
	run, err := resolvePractice(cmd, a.cfg, now)
	if err != nil {
		return err
	}

	ctx := context.Background()
	all, err := a.st.ListWords(ctx, store.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}
	var history []model.HistoryEntry
	if run.sel.Weak {
		if history, err = a.st.ListHistory(ctx, store.HistoryFilter{}); err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
	}
	words := selectWords(all, history, run.sel, nil)
	if len(words) == 0 {
		return fmt.Errorf("no words match the selection (add some with: vocadrill add <word> --def <definition>)")
	}
	a.log.Info("starting practice", "mode", run.mode, "words", len(words))
	return runSession(cmd.OutOrStdout(), a, run.mode, words, run.settings, all, run.speak)
}

// runSession drives a session through the practice UI and prints the summary.
func runSession(out io.Writer, a *app, mode model.Mode, words []model.Word, settings practice.Settings, poolWords []model.Word, speak string) error {
	sess, err := practice.Start(mode, words, settings, practice.WithJournal(a.st))
	if err != nil {
		return err
	}
	ui := tui.NewModel(sess, tui.Options{
		Store:   a.st,
		Pool:    poolWords,
		Speaker: speech.Parse(speak),
		Logger:  a.log,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		sess.Dispose()
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m, ok := final.(*tui.Model); ok {
		ui = m
	}
	sum, ok := ui.Summary()
	if !ok {
		return nil
	}
	return printSummary(out, sum)
}

func printSummary(w io.Writer, sum practice.Summary) error {
	_, err := fmt.Fprintf(w, "%s: %d/%d correct (%d%%), %d wrong, %d skipped in %s. Streak: %d day(s)\n",
		sum.Mode, sum.Score, sum.Total, sum.Accuracy, sum.Wrong, sum.Skipped,
		sum.Duration.Round(time.Second), sum.Streak.Days)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parseDay parses YYYY-MM-DD in local time. endOfDay moves the result to the
// last instant of that day. An empty value yields the zero time.
func parseDay(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(model.DayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
