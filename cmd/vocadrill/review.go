package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/pool"
	"github.com/verte-zerg/vocadrill/internal/practice"
	"github.com/verte-zerg/vocadrill/internal/srs"
	"github.com/verte-zerg/vocadrill/internal/stats"
	"github.com/verte-zerg/vocadrill/internal/store"
)

const defaultForecastDays = 14

var (
	weakDays  int
	weakLimit int
	weakSet   string

	dueDays int

	reviewLimit int
	reviewSet   string
)

func newWeakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weak",
		Short: "Show the words that need review, most urgent first",
		Args:  cobra.NoArgs,
		RunE:  runWeakCmd,
	}
	cmd.Flags().IntVar(&weakDays, "days", defaultWeakDays, "history window for recent misses")
	cmd.Flags().IntVar(&weakLimit, "limit", defaultWeakLimit, "number of words")
	cmd.Flags().StringVar(&weakSet, "set", "", "only words from this set")
	return cmd
}

func runWeakCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	applyIntConfig(cmd, "days", &weakDays, a.cfg.Weak.Days)
	applyIntConfig(cmd, "limit", &weakLimit, a.cfg.Weak.Limit)

	ctx := context.Background()
	words, err := a.st.ListWords(ctx, store.ListFilter{SetID: weakSet})
	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}
	history, err := a.st.ListHistory(ctx, store.HistoryFilter{})
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	ranked := stats.RankWeakWords(words, history, stats.WeakOptions{Days: weakDays, Limit: weakLimit})
	if len(ranked) == 0 {
		logErrf("No weak words. Practice some words first.\n")
		return nil
	}
	return stats.RenderWeak(cmd.OutOrStdout(), ranked)
}

func newDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Count due words and show the review forecast",
		Args:  cobra.NoArgs,
		RunE:  runDueCmd,
	}
	cmd.Flags().IntVar(&dueDays, "days", defaultForecastDays, "forecast length in days")
	return cmd
}

func runDueCmd(cmd *cobra.Command, _ []string) error {
	if dueDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	now := time.Now()
	n, err := a.st.CountDue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to count due words: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d word(s) due now\n\n", n); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	words, err := a.st.ListWords(ctx, store.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}
	return stats.RenderForecast(cmd.OutOrStdout(), srs.Forecast(words, now, dueDays), now)
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due words as spaced-repetition flashcards",
		Args:  cobra.NoArgs,
		RunE:  runReviewCmd,
	}
	cmd.Flags().IntVar(&reviewLimit, "limit", defaultLimit, "words per session (0 = all)")
	cmd.Flags().StringVar(&reviewSet, "set", "", "only words from this set")
	return cmd
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	if reviewLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	all, err := a.st.ListWords(context.Background(), store.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}
	words := selectWords(all, nil, selection{
		SetID:     reviewSet,
		Include:   pool.DefaultInclude(),
		KeepOrder: true,
		Limit:     reviewLimit,
		Due:       true,
		Now:       time.Now(),
	}, nil)
	if len(words) == 0 {
		logErrf("Nothing is due. Come back later or run: vocadrill due\n")
		return nil
	}

	settings := practice.DefaultSettings(model.ModeFlashcard)
	settings.Shuffle = false
	return runSession(cmd.OutOrStdout(), a, model.ModeFlashcard, words, settings, all, "")
}
