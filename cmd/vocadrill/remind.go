package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/remind"
)

var (
	remindEvery  time.Duration
	remindFrom   int
	remindUntil  int
	remindNotify string
	remindOnce   bool
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind about due words on a schedule",
		Args:  cobra.NoArgs,
		RunE:  runRemindCmd,
	}
	cmd.Flags().DurationVar(&remindEvery, "every", remind.DefaultEvery, "check interval")
	cmd.Flags().IntVar(&remindFrom, "from", remind.DefaultFromHour, "first hour reminders are allowed (0-23)")
	cmd.Flags().IntVar(&remindUntil, "until", remind.DefaultUntilHour, "last hour reminders are allowed (0-23)")
	cmd.Flags().StringVar(&remindNotify, "notify", "", "notification command, e.g. notify-send (default: print)")
	cmd.Flags().BoolVar(&remindOnce, "once", false, "check once and exit")
	return cmd
}

func runRemindCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	rc := a.cfg.Remind
	if _, err := applyDurationConfig(cmd, "every", &remindEvery, rc.Every); err != nil {
		return err
	}
	applyIntConfig(cmd, "from", &remindFrom, rc.FromHour)
	applyIntConfig(cmd, "until", &remindUntil, rc.UntilHour)
	applyStringConfig(cmd, "notify", &remindNotify, rc.Notify)

	var notifier remind.Notifier = remind.WriterNotifier{W: cmd.OutOrStdout()}
	if remindNotify != "" {
		notifier = remind.CommandNotifier{Command: remindNotify}
	}
	r, err := remind.New(a.st, notifier, remind.Config{
		Every:     remindEvery,
		FromHour:  remindFrom,
		UntilHour: remindUntil,
	}, a.log)
	if err != nil {
		return err
	}

	if remindOnce {
		due, sent, err := r.Check(context.Background())
		if err != nil {
			return err
		}
		if !sent {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "No reminder sent (%d due)\n", due)
			return err
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx)
}
