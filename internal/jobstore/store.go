// Package jobstore persists per-item send jobs so that outstanding
// work survives a process restart. All state transitions are applied
// atomically against the store: two orchestrator instances, or an
// orchestrator racing an operator's cancel, can never both move the
// same job.
package jobstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

var (
	// ErrNotFound is returned when no job has the given id.
	ErrNotFound = errors.New("job not found")

	// ErrDuplicate is returned when a job with the same
	// (campaign, recipient, day) key already ran or is running;
	// pending duplicates are replaced instead.
	ErrDuplicate = errors.New("duplicate job for campaign, recipient and day")
)

// Store is the persistent job store contract.
type Store interface {
	// Put inserts a pending job. A prior pending job with the same
	// dedup key is replaced; any other prior state yields ErrDuplicate.
	Put(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ListPending(ctx context.Context) ([]*models.Job, error)

	// ClaimDue atomically moves due pending jobs that are still inside
	// their grace window to running and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Job, error)

	// ExpireOverdue atomically moves pending jobs whose grace window
	// has passed to expired and returns them. Expired jobs never run.
	ExpireOverdue(ctx context.Context, now time.Time) ([]*models.Job, error)

	// MarkExecuted finishes a running job, regardless of whether the
	// underlying send succeeded.
	MarkExecuted(ctx context.Context, id string, now time.Time) error

	// CancelByCampaign and CancelAll move pending jobs to cancelled.
	// Cancelled is terminal; running jobs are not touched.
	CancelByCampaign(ctx context.Context, campaign string, now time.Time) (int64, error)
	CancelAll(ctx context.Context, now time.Time) (int64, error)

	// Planning watermark: the last day a planning run completed, used
	// for misfire catch-up across restarts.
	LastPlanDay(ctx context.Context) (string, error)
	SetLastPlanDay(ctx context.Context, day string) error

	Close() error
}

// Open initializes the configured store.
func Open(ctx context.Context, driver, databaseURL string, log *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx":
		return OpenPostgres(ctx, databaseURL, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown job store driver: " + driver)
	}
}
