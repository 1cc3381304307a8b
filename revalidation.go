package goSession

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// revalidator fires the interval revalidation. A nil revalidator is disabled.
type revalidator struct {
	cron *cron.Cron
}

func newRevalidator(interval time.Duration, logger zerolog.Logger, job func()) *revalidator {
	if interval <= 0 || job == nil {
		return nil
	}

	clog := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(cron.Every(interval), cron.FuncJob(job))

	return &revalidator{cron: c}
}

func (v *revalidator) start() {
	if v == nil {
		return
	}
	v.cron.Start()
}

func (v *revalidator) stop() {
	if v == nil {
		return
	}
	<-v.cron.Stop().Done()
}

func (v *revalidator) next() time.Time {
	if v == nil {
		return time.Time{}
	}
	entries := v.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("revalidation: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("revalidation: " + msg)
}

// NextRevalidation returns the time of the next scheduled revalidation, or the zero time
// when the schedule is disabled or not started.
func (r *Resolver) NextRevalidation() time.Time {
	return r.sched.next()
}
