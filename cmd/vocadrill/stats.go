package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/stats"
	"github.com/verte-zerg/vocadrill/internal/statsui"
)

const curveHeight = 8

var (
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsText        bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsText, "text", false, "print a text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	opts := stats.ReportOptions{
		Last:         statsLast,
		CurveWindow:  statsCurveWindow,
		WeakDays:     defaultWeakDays,
		WeakLimit:    defaultWeakLimit,
		ForecastDays: defaultForecastDays,
	}
	if statsMode != "" {
		mode, err := model.ParseMode(statsMode)
		if err != nil {
			return fmt.Errorf("invalid --mode: %w", err)
		}
		opts.Mode = mode
	}
	if statsSince != "" {
		parsed, err := time.ParseInLocation(model.DayLayout, statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		opts.Since = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	a, err := openApp(cmd, !statsText)
	if err != nil {
		return err
	}
	defer a.close()
	if a.cfg.Weak.Days != nil {
		opts.WeakDays = *a.cfg.Weak.Days
	}
	if a.cfg.Weak.Limit != nil {
		opts.WeakLimit = *a.cfg.Weak.Limit
	}

	if statsText {
		report, err := stats.BuildReport(context.Background(), a.st, opts)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return renderTextReport(cmd.OutOrStdout(), report, stdoutWidth())
	}

	program := tea.NewProgram(statsui.NewModel(a.st, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderTextReport(w io.Writer, r stats.Report, width int) error {
	if err := stats.RenderSummary(w, r.Overview); err != nil {
		return err
	}
	if err := stats.RenderModes(w, r.Modes); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, r.History, r.Window, width, curveHeight, false); err != nil {
		return err
	}
	if err := stats.RenderForecast(w, r.Forecast, r.Now); err != nil {
		return err
	}
	if len(r.Weak) == 0 {
		return nil
	}
	return stats.RenderWeak(w, r.Weak)
}

func stdoutWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
