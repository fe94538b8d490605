package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/dtracker/internal/logger"
)

// Jobs runs the periodic maintenance work of watch mode on a cron schedule.
// Specs use six fields, seconds first.
type Jobs struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// cronLogger forwards cron's own messages to the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var specParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec checks a six-field (seconds first) cron spec or descriptor.
func ValidateSpec(spec string) error {
	_, err := specParser.Parse(spec)
	return err
}

func NewJobs(loc *time.Location) *Jobs {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(specParser),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		ctx:     ctx,
		cancel:  cancel,
		timeout: 5 * time.Minute,
	}
}

// ScheduleRefresh registers the due-date refresh pass.
func (j *Jobs) ScheduleRefresh(spec string, run func(ctx context.Context) error) (cron.EntryID, error) {
	return j.schedule("refresh due dates", spec, run)
}

// ScheduleHolidaySeed registers the holiday seeding job.
func (j *Jobs) ScheduleHolidaySeed(spec string, run func(ctx context.Context) error) (cron.EntryID, error) {
	return j.schedule("seed holidays", spec, run)
}

func (j *Jobs) schedule(name, spec string, run func(ctx context.Context) error) (cron.EntryID, error) {
	id, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			logger.Error("Job failed", "job", name, "error", err)
			return
		}
		logger.Info("Job finished", "job", name, "took", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	return id, nil
}

// Next returns the next run time of a scheduled job.
func (j *Jobs) Next(id cron.EntryID) time.Time {
	return j.cron.Entry(id).Next
}

func (j *Jobs) Start() {
	j.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (j *Jobs) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
}
