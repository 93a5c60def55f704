package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/email"
	"github.com/kayvonkhosrowpour/jma-send/internal/metrics"
	"github.com/kayvonkhosrowpour/jma-send/internal/models"
	"github.com/kayvonkhosrowpour/jma-send/internal/worker"
)

// DeliveryInvoker is the body of a per-item job: one send attempt,
// outcome recorded, no retry. It never propagates an error; a failed
// delivery is observable in the logs and counters only.
type DeliveryInvoker struct {
	Transport email.MailTransport
	Log       *zap.Logger
}

func (d *DeliveryInvoker) Invoke(ctx context.Context, job *models.Job) {
	err := d.Transport.Send(ctx, job.Recipient, job.SubjectTitle, job.RenderedBody)
	if err != nil {
		d.Log.Error("email send failed",
			zap.String("job", job.Name),
			zap.String("to", job.Recipient),
			zap.Error(err),
		)
		metrics.EmailFailures.Inc()
		return
	}

	d.Log.Info("email sent",
		zap.String("job", job.Name),
		zap.String("to", job.Recipient),
	)
	metrics.EmailsSent.Inc()
}

func (o *Orchestrator) startWorkers(ctx context.Context) {
	invoker := &DeliveryInvoker{Transport: o.transport, Log: o.log}

	worker.StartPool(ctx, &o.wg, o.cfg.WorkerCount, o.jobs, o.limiter,
		func(ctx context.Context, job *models.Job) {
			o.executeJob(ctx, invoker, job)
		}, o.log)
}

// executeJob runs one claimed job to its terminal state. Executed is
// recorded unconditionally once the invoker returns: execution is
// attempted at most once, whatever the transport said.
func (o *Orchestrator) executeJob(ctx context.Context, invoker *DeliveryInvoker, job *models.Job) {
	invoker.Invoke(ctx, job)

	if err := o.store.MarkExecuted(ctx, job.ID, o.now()); err != nil {
		o.log.Error("failed to mark job executed",
			zap.String("job", job.Name),
			zap.Error(err),
		)
	}
}
