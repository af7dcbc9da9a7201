package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powersense/internal/config"
	"powersense/internal/service"
	"powersense/internal/ticker"

	"github.com/spf13/cobra"
)

var watchSchedule bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the load-shedding countdown",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVarP(&watchSchedule, "watch", "w", false, "refresh the countdown every second until interrupted")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slots, err := scheduleFromConfig(cfg, time.Now())
	if err != nil {
		return err
	}
	sched := service.NewScheduleService(slots, cfg.Schedule.Location())
	out := cmd.OutOrStdout()

	printView(out, sched.View(time.Now()), true)
	if !watchSchedule {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	h := ticker.Start(ctx, ticker.Task{
		Name:     "countdown",
		Interval: time.Second,
		Run: func(_ context.Context, now time.Time) {
			printView(out, sched.View(now), false)
		},
	})
	<-ctx.Done()
	h.Stop()
	return nil
}

func printView(w io.Writer, v service.CountdownView, withSlots bool) {
	if v.Next == nil {
		_, _ = fmt.Fprintln(w, v.Countdown)
		return
	}
	_, _ = fmt.Fprintf(w, "%s until %s\n", v.Countdown, v.Stage)
	if !withSlots {
		return
	}
	for _, s := range v.Upcoming {
		_, _ = fmt.Fprintf(w, "  %-8s %s - %s\n", s.Stage, s.StartLabel, s.EndLabel)
	}
}
