// Package schedule runs a job on a cron schedule without overlapping runs.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// parser accepts standard 5-field expressions and descriptors like "@every 15m".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is the work run on every tick.
type Job func(ctx context.Context)

// Runner triggers a Job according to a cron expression. A tick that fires
// while the previous run is still going is skipped.
type Runner struct {
	expr     string
	schedule cron.Schedule
	job      Job
}

// New parses expr and creates a Runner.
func New(expr string, job Job) (*Runner, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", expr, err)
	}
	return &Runner{expr: expr, schedule: sched, job: job}, nil
}

// Next returns the first activation after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

// Run blocks until ctx is cancelled, then waits for a running job to return.
// The job receives ctx so it can stop early on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	logger := cronLogger{log.With().Str("component", "schedule").Logger()}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	c.Schedule(r.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		r.job(ctx)
	}))

	log.Info().Str("schedule", r.expr).Time("next_run", r.Next(time.Now())).Msg("Scheduler started")
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	log.Info().Msg("Scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	zl zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.zl.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.zl.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
