package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func (a *app) newWatchCmd() *cobra.Command {
	var (
		f        queryFlags
		schedule string
		times    int
	)
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Reload a file on a schedule and print the query result each time",
		Long: `Run the query once right away, then again on every tick of the schedule
until interrupted or until --times runs have completed. The schedule is a
cron expression with a seconds field ("*/30 * * * * *") or a descriptor
such as "@every 10s" or "@hourly". A failed reload is logged and skipped.`,
		Example: `  tinyframe watch sensors.csv --schedule "@every 30s" --sort ts --desc --head 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, cmd, args[0], schedule, times, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&schedule, "schedule", "@every 5s", "cron expression or descriptor")
	fl.IntVar(&times, "times", 0, "stop after this many runs (0 runs until interrupted)")
	fl.StringSliceVar(&f.cols, "cols", nil, "columns to keep, in order")
	fl.StringArrayVarP(&f.where, "where", "w", nil, "filter clause column:op:value (repeatable)")
	fl.BoolVar(&f.any, "any", false, "keep rows matching any clause instead of all")
	fl.StringSliceVar(&f.sort, "sort", nil, "sort columns")
	fl.BoolVar(&f.desc, "desc", false, "sort descending")
	fl.IntVar(&f.head, "head", 0, "keep only the first n rows (0 keeps all)")
	fl.StringVarP(&f.format, "format", "f", "table", "output format (table|csv|json|xml|markdown)")
	return cmd
}

// watchLoop serializes runs and stops once times runs have printed.
type watchLoop struct {
	mu    sync.Mutex
	once  sync.Once
	runs  int
	times int
	run   func(n int) error
	done  chan struct{}
}

func newWatchLoop(times int, run func(n int) error) *watchLoop {
	return &watchLoop{times: times, run: run, done: make(chan struct{})}
}

func (l *watchLoop) finished() bool { return l.times > 0 && l.runs >= l.times }

// tick performs the next run. Ticks after the last run do nothing.
func (l *watchLoop) tick() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished() {
		return nil
	}
	if err := l.run(l.runs + 1); err != nil {
		return err
	}
	l.runs++
	if l.finished() {
		l.once.Do(func() { close(l.done) })
	}
	return nil
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, path, schedule string, times int, f queryFlags) error {
	w := cmd.OutOrStdout()
	loop := newWatchLoop(times, func(n int) error {
		t, err := a.load(ctx, path)
		if err != nil {
			return err
		}
		out, err := runQuery(t, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "-- run %d --\n", n)
		return write(w, out, f.format, false, a.maxRows())
	})

	// The first run reports errors directly; a broken query would fail on
	// every tick.
	if err := loop.tick(); err != nil {
		return err
	}
	if loop.finished() {
		return nil
	}

	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if err := loop.tick(); err != nil {
			a.logger.Warn("watch: reload failed", slog.String("path", path), slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()
	a.logger.Debug("watching", slog.String("path", path), slog.String("schedule", schedule))

	select {
	case <-ctx.Done():
	case <-loop.done:
	}
	return nil
}
