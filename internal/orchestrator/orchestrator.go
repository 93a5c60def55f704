// Package orchestrator owns both job families: the recurring daily
// planning run and the one-shot per-item send jobs it creates. Job
// state lives in the job store; the orchestrator only ever moves jobs
// through claims, so it can be restarted, or run twice, without
// double-sending.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kayvonkhosrowpour/jma-send/internal/config"
	"github.com/kayvonkhosrowpour/jma-send/internal/email"
	"github.com/kayvonkhosrowpour/jma-send/internal/jobstore"
	"github.com/kayvonkhosrowpour/jma-send/internal/metrics"
	"github.com/kayvonkhosrowpour/jma-send/internal/models"
	"github.com/kayvonkhosrowpour/jma-send/internal/roster"
)

type Orchestrator struct {
	cfg        *config.Config
	store      jobstore.Store
	transport  email.MailTransport
	recipients roster.RecipientSource
	timetable  roster.TimetableSource
	log        *zap.Logger

	limiter      *rate.Limiter
	pollInterval time.Duration
	claimBatch   int

	// now is swapped out in tests
	now func() time.Time

	planning atomic.Bool
	cron     *cron.Cron
	jobs     chan *models.Job
	wg       sync.WaitGroup
}

func New(
	cfg *config.Config,
	store jobstore.Store,
	transport email.MailTransport,
	recipients roster.RecipientSource,
	timetable roster.TimetableSource,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		store:        store,
		transport:    transport,
		recipients:   recipients,
		timetable:    timetable,
		log:          log,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		pollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		claimBatch:   2 * cfg.WorkerCount,
		now:          time.Now,
		jobs:         make(chan *models.Job, cfg.WorkerCount),
	}
}

// Start registers the recurring planning trigger, runs a misfire
// catch-up if today's fire time was missed, and starts the dispatch
// loop plus the delivery worker pool. It returns once everything is
// running; Wait blocks until workers drain after ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.catchUpMissedPlanning(ctx); err != nil {
		// the next recurrence is the next recovery attempt
		o.log.Error("misfire catch-up planning failed", zap.Error(err))
	}

	o.cron = cron.New(cron.WithLocation(o.location()))
	_, err := o.cron.AddFunc(o.cfg.PlanningCron, func() {
		if err := o.RunPlanning(ctx); err != nil {
			o.log.Error("planning run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	o.cron.Start()

	o.startWorkers(ctx)

	o.wg.Add(1)
	go o.dispatchLoop(ctx)

	o.log.Info("orchestrator started",
		zap.String("planning_cron", o.cfg.PlanningCron),
		zap.Int("workers", o.cfg.WorkerCount),
	)
	return nil
}

// Wait blocks until the dispatch loop and all workers have exited.
func (o *Orchestrator) Wait() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}
	o.wg.Wait()
}

func (o *Orchestrator) location() *time.Location {
	if o.cfg.Timezone == "" || o.cfg.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(o.cfg.Timezone)
	if err != nil {
		o.log.Warn("invalid timezone, falling back to Local",
			zap.String("tz", o.cfg.Timezone), zap.Error(err))
		return time.Local
	}
	return loc
}

// dispatchLoop polls the store, expires jobs past their grace window,
// and hands claimed due jobs to the worker pool. Expiry happens in the
// store itself, so a second orchestrator instance never races this one
// into a double fire.
func (o *Orchestrator) dispatchLoop(ctx context.Context) {
	defer o.wg.Done()
	defer close(o.jobs)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.dispatchDue(ctx)
		}
	}
}

func (o *Orchestrator) dispatchDue(ctx context.Context) {
	now := o.now()

	expired, err := o.store.ExpireOverdue(ctx, now)
	if err != nil {
		o.log.Error("failed to expire overdue jobs", zap.Error(err))
	}
	for _, job := range expired {
		// a designed outcome, distinct from delivery failure
		o.log.Warn("job missed its send window, dropped",
			zap.String("job", job.Name),
			zap.Time("scheduled_time", job.ScheduledTime),
			zap.Time("deadline", job.Deadline()),
		)
		metrics.JobsExpired.Inc()
	}

	claimed, err := o.store.ClaimDue(ctx, now, o.claimBatch)
	if err != nil {
		o.log.Error("failed to claim due jobs", zap.Error(err))
		return
	}
	for _, job := range claimed {
		select {
		case o.jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}
