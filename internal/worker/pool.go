package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// Execute runs one claimed job to completion. It must never panic the
// pool; delivery failures are handled inside.
type Execute func(ctx context.Context, job *models.Job)

// StartPool starts the bounded delivery pool. Each worker drains the
// jobs channel, waits on the shared rate limiter, and executes jobs
// independently of one another.
func StartPool(
	ctx context.Context,
	wg *sync.WaitGroup,
	workers int,
	jobs <-chan *models.Job,
	limiter *rate.Limiter,
	execute Execute,
	logger *zap.Logger,
) {

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			logger.Info("worker started", zap.Int("worker_id", id))

			for {
				select {

				case <-ctx.Done():
					logger.Info("worker shutting down", zap.Int("worker_id", id))
					return

				case job, ok := <-jobs:
					if !ok {
						logger.Info("job channel closed", zap.Int("worker_id", id))
						return
					}

					// ----------------------------
					// Rate Limit
					// ----------------------------
					if err := limiter.Wait(ctx); err != nil {
						logger.Warn("rate limiter stopped by context",
							zap.Int("worker_id", id),
							zap.Error(err),
						)
						return
					}

					execute(ctx, job)
				}
			}
		}(i)
	}
}
