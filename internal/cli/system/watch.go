package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/scheduler"
)

// WatchCmd runs the background jobs in the foreground until interrupted:
// the daily due-date refresh and the yearly holiday seed.
type WatchCmd struct {
	Changes bool `help:"Print store changes as they arrive."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Component("watch")

	// catch up once before waiting for the schedule
	if err := ctx.SeedAhead(runCtx); err != nil {
		log.Warn("Holiday seed failed", "error", err)
	}
	if updated, err := ctx.Scheduler.RefreshEmployees(runCtx, ctx.Today()); err != nil {
		log.Warn("Due date refresh incomplete", "error", err)
	} else {
		log.Info("Refreshed due dates", "count", len(updated))
	}

	jobs := scheduler.NewJobs(ctx.Loc)
	refreshID, err := jobs.ScheduleRefresh(ctx.Config.Refresh.Schedule, func(jobCtx context.Context) error {
		_, err := ctx.Scheduler.RefreshEmployees(jobCtx, ctx.Today())
		return err
	})
	if err != nil {
		return err
	}
	seedID, err := jobs.ScheduleHolidaySeed(ctx.Config.Holidays.SeedSchedule, ctx.SeedAhead)
	if err != nil {
		return err
	}

	if c.Changes {
		unsubscribe := ctx.Store.Subscribe("", func(ch models.Change) {
			fmt.Printf("%s %s %s\n", ch.Kind, ch.Collection, ch.ID)
		})
		defer unsubscribe()
	}

	jobs.Start()
	defer jobs.Stop()

	fmt.Printf("Watching. Next refresh %s, next holiday seed %s. Press Ctrl+C to stop.\n",
		jobs.Next(refreshID).Format("2006-01-02 15:04:05"), jobs.Next(seedID).Format("2006-01-02"))

	<-runCtx.Done()
	fmt.Println("\nStopping...")
	return nil
}
