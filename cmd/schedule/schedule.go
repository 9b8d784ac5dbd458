// Package schedule implements the schedule command, which keeps running and
// starts each job whenever its cron expression fires.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/statcrawl/cmd/common"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/job"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

// ErrNothingScheduled is returned when no job defines a schedule.
var ErrNothingScheduled = errors.New("no job has a schedule")

// Command returns the schedule command.
func Command() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run jobs on their cron schedules until interrupted",
		Long: `Run every job that has a schedule whenever its cron expression fires.
Schedules use five fields: minute hour day-of-month month day-of-week.
A run still in progress when its next tick fires is not started twice.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := common.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			runner, err := job.NewRunner(cfg, log)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), cfg.Jobs, runner, log, cmd.ErrOrStderr(), runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "also run every scheduled job once at startup")
	return cmd
}

// Runner runs one named job.
type Runner interface {
	Run(ctx context.Context, names ...string) ([]job.Result, error)
}

// Run registers every scheduled job and blocks until ctx is done, then waits
// for running jobs to stop.
func Run(ctx context.Context, jobs []config.Job, runner Runner, log logger.Logger, summary io.Writer, runNow bool) error {
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		cron.WithLogger(cronLog),
	)

	scheduled := make([]func(), 0, len(jobs))
	for _, j := range jobs {
		if j.Schedule == "" {
			continue
		}
		name := j.Name
		fire := func() {
			results, err := runner.Run(ctx, name)
			job.RenderResults(summary, results)
			if err != nil && ctx.Err() == nil {
				log.Error("Scheduled job failed", logger.String("job", name), logger.Error(err))
			}
		}
		entryID, err := c.AddFunc(j.Schedule, fire)
		if err != nil {
			return fmt.Errorf("schedule job %s: %w", name, err)
		}
		log.Info("Job scheduled",
			logger.String("job", name),
			logger.String("schedule", j.Schedule),
			logger.Int("entry_id", int(entryID)),
		)
		scheduled = append(scheduled, c.Entry(entryID).WrappedJob.Run)
	}
	if len(scheduled) == 0 {
		return ErrNothingScheduled
	}

	c.Start()
	var startup sync.WaitGroup
	if runNow {
		for _, fire := range scheduled {
			startup.Go(fire)
		}
	}

	<-ctx.Done()
	log.Info("Scheduler stopping, waiting for running jobs")
	<-c.Stop().Done()
	startup.Wait()
	return nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if t, isTime := keysAndValues[i+1].(time.Time); isTime {
			out = append(out, logger.String(key, t.Format(time.RFC3339)))
			continue
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
