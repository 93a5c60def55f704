package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/config"
	"github.com/kayvonkhosrowpour/jma-send/internal/email"
	"github.com/kayvonkhosrowpour/jma-send/internal/jobstore"
	"github.com/kayvonkhosrowpour/jma-send/internal/metrics"
	"github.com/kayvonkhosrowpour/jma-send/internal/models"
	"github.com/kayvonkhosrowpour/jma-send/internal/plan"
)

// ErrPlanningActive is returned when a planning run is already in
// flight; at most one may be active at a time.
var ErrPlanningActive = errors.New("planning run already active")

// RunPlanning executes one daily planning run: validate configuration,
// resolve recipients, compute the batched schedule, persist the plan
// record and submit one durable job per item. Invalid configuration or
// unreadable sources abort the run before anything is submitted.
func (o *Orchestrator) RunPlanning(ctx context.Context) error {
	if !o.planning.CompareAndSwap(false, true) {
		return ErrPlanningActive
	}
	defer o.planning.Store(false)

	err := o.runPlanningLocked(ctx)
	if err != nil {
		metrics.PlanFailures.Inc()
	}
	return err
}

func (o *Orchestrator) runPlanningLocked(ctx context.Context) error {
	now := o.now().In(o.location())
	o.log.Info("planning run starting", zap.String("day", models.PlanDay(now)))

	// campaign file is re-read each run so operator edits take effect
	// the next morning without a restart
	campaignCfg, err := config.LoadCampaigns(o.cfg.CampaignFile)
	if err != nil {
		return err
	}

	recipients, err := o.recipients.AllRecipients()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	classNames, err := o.timetable.ClassNames()
	if err != nil {
		return fmt.Errorf("load timetable: %w", err)
	}

	if ok, verrs := config.Validate(campaignCfg, classNames, recipients); !ok {
		for _, e := range verrs {
			o.log.Error("invalid campaign configuration", zap.String("problem", e))
		}
		return fmt.Errorf("campaign configuration has %d problems", len(verrs))
	}

	classTimes, err := o.timetable.ClassTimesForToday(now)
	if err != nil {
		return fmt.Errorf("load class times: %w", err)
	}
	if len(classTimes) == 0 {
		o.log.Info("no classes today, 0 emails will be sent")
		metrics.PlansBuilt.Inc()
		return o.store.SetLastPlanDay(ctx, models.PlanDay(now))
	}

	bodies, err := email.RenderBodies(campaignCfg.Campaigns)
	if err != nil {
		return fmt.Errorf("render campaign bodies: %w", err)
	}

	windowStarts := make(map[string]time.Time, 2)
	for _, w := range []string{models.WindowMorningAndNoon, models.WindowAfternoon} {
		start, err := campaignCfg.WindowStart(w, now)
		if err != nil {
			return err
		}
		windowStarts[w] = start
	}

	planner := &plan.Planner{
		BatchSize:     campaignCfg.BatchSize,
		BatchInterval: campaignCfg.BatchInterval.Std(),
		SafetyMargin:  time.Duration(o.cfg.SafetyMarginMin) * time.Minute,
		WindowStarts:  windowStarts,
		Log:           o.log,
	}
	dayPlan := planner.Plan(campaignCfg.Campaigns, classTimes, recipients, bodies, now)

	o.log.Info("schedule computed",
		zap.String("day", dayPlan.Day),
		zap.Int("items", len(dayPlan.Items)),
	)

	// the plan record is written before any job submission so the
	// intended sends can always be reconstructed afterwards
	if err := plan.AppendRecord(o.cfg.TransactionLog, dayPlan); err != nil {
		return err
	}

	if err := o.submitJobs(ctx, dayPlan, now); err != nil {
		return err
	}

	if err := o.store.SetLastPlanDay(ctx, dayPlan.Day); err != nil {
		return fmt.Errorf("persist planning watermark: %w", err)
	}

	metrics.PlansBuilt.Inc()
	o.log.Info("planning run complete", zap.String("day", dayPlan.Day))
	return nil
}

func (o *Orchestrator) submitJobs(ctx context.Context, dayPlan models.SchedulePlan, now time.Time) error {
	for i := range dayPlan.Items {
		job := models.NewJob(uuid.NewString(), dayPlan.Items[i], dayPlan.Day, now)

		err := o.store.Put(ctx, job)
		if errors.Is(err, jobstore.ErrDuplicate) {
			o.log.Warn("job already ran today, not resubmitting",
				zap.String("job", job.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("submit job %s: %w", job.Name, err)
		}
		metrics.ItemsScheduled.Inc()
	}
	return nil
}
