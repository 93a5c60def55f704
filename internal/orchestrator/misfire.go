package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// catchUpMissedPlanning runs the planning job once, immediately, when
// the process starts after today's fire time has already passed and no
// planning run completed today. Several missed fires coalesce into the
// single catch-up; a fire missed on a previous day is never replayed,
// since the catch-up is only useful before the class day ends.
func (o *Orchestrator) catchUpMissedPlanning(ctx context.Context) error {
	sched, err := cron.ParseStandard(o.cfg.PlanningCron)
	if err != nil {
		return fmt.Errorf("parse planning cron %q: %w", o.cfg.PlanningCron, err)
	}

	now := o.now().In(o.location())
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	fire := sched.Next(midnight.Add(-time.Second))
	if models.PlanDay(fire) != models.PlanDay(now) {
		// no planning scheduled today at all
		return nil
	}
	if fire.After(now) {
		// today's fire is still ahead; the cron will take it
		return nil
	}

	lastDay, err := o.store.LastPlanDay(ctx)
	if err != nil {
		return fmt.Errorf("read planning watermark: %w", err)
	}
	if lastDay == models.PlanDay(now) {
		return nil
	}

	o.log.Warn("missed planning fire detected, catching up now",
		zap.Time("intended_fire", fire),
		zap.String("last_planned_day", lastDay),
	)
	return o.RunPlanning(ctx)
}
