package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/basecruz/stockbridge/cmd/jobsctl/cli"
	"github.com/basecruz/stockbridge/internal/app"
)

const usage = `usage: jobsctl <command>

commands:
  trigger <syncStock|syncProducts>  enqueue a job for the worker
  queue                             show default queue depth
  schedule                          list registered cron entries`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()

	if err := run(ctx, jobsCLI, os.Args[1:]); err != nil {
		logger.Error("jobsctl", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, jobsCLI *cli.JobsCLI, args []string) error {
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("trigger requires a job name")
		}
		id, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s task_id=%s\n", args[1], id)
	case "queue":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	case "schedule":
		entries, err := jobsCLI.ListSchedulerEntries()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Printf("%s\t%s\t%s\tnext=%s\n", entry.ID, entry.Spec, entry.Task.Type(), entry.Next.Format("2006-01-02T15:04:05Z07:00"))
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}
