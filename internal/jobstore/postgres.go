package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

const jobColumns = `id, name, campaign, recipient, subject, body, day,
	class_time, scheduled_time, grace_seconds, status, attempted,
	created_at, updated_at`

// PostgresStore is the durable Store backed by a pgx pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func OpenPostgres(ctx context.Context, conn string, log *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{Pool: pool, log: log}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS send_jobs (
			id             UUID PRIMARY KEY,
			name           TEXT NOT NULL,
			campaign       TEXT NOT NULL,
			recipient      TEXT NOT NULL,
			subject        TEXT NOT NULL,
			body           TEXT NOT NULL,
			day            TEXT NOT NULL,
			class_time     TIMESTAMPTZ NOT NULL,
			scheduled_time TIMESTAMPTZ NOT NULL,
			grace_seconds  BIGINT NOT NULL,
			status         TEXT NOT NULL,
			attempted      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			UNIQUE (campaign, recipient, day)
		);
		CREATE INDEX IF NOT EXISTS send_jobs_due
			ON send_jobs (scheduled_time) WHERE status = 'pending';
		CREATE TABLE IF NOT EXISTS scheduler_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("migrate job store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, job *models.Job) error {
	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO send_jobs (`+jobColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 ON CONFLICT (campaign, recipient, day) DO UPDATE SET
			id=excluded.id, name=excluded.name, subject=excluded.subject,
			body=excluded.body, class_time=excluded.class_time,
			scheduled_time=excluded.scheduled_time,
			grace_seconds=excluded.grace_seconds,
			status=excluded.status, attempted=excluded.attempted,
			created_at=excluded.created_at, updated_at=excluded.updated_at
		 WHERE send_jobs.status = 'pending'`,
		job.ID, job.Name, job.CampaignName, job.Recipient, job.SubjectTitle,
		job.RenderedBody, job.Day, job.ClassTime, job.ScheduledTime,
		job.GraceSeconds, job.Status, job.Attempted, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Job, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM send_jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM send_jobs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM send_jobs`)
	return tag.RowsAffected(), err
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+jobColumns+` FROM send_jobs
		 WHERE status='pending'
		 ORDER BY scheduled_time, campaign, recipient`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Job, error) {
	rows, err := s.Pool.Query(ctx,
		`UPDATE send_jobs
		 SET status='running', attempted=TRUE, updated_at=$1
		 WHERE id IN (
			SELECT id FROM send_jobs
			WHERE status='pending'
			  AND scheduled_time <= $1
			  AND scheduled_time + make_interval(secs => grace_seconds) >= $1
			ORDER BY scheduled_time
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) ExpireOverdue(ctx context.Context, now time.Time) ([]*models.Job, error) {
	rows, err := s.Pool.Query(ctx,
		`UPDATE send_jobs
		 SET status='expired', updated_at=$1
		 WHERE status='pending'
		   AND scheduled_time + make_interval(secs => grace_seconds) < $1
		 RETURNING `+jobColumns, now)
	if err != nil {
		return nil, fmt.Errorf("expire overdue jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) MarkExecuted(ctx context.Context, id string, now time.Time) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE send_jobs SET status='executed', updated_at=$1
		 WHERE id=$2 AND status='running'`, now, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CancelByCampaign(ctx context.Context, campaign string, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE send_jobs SET status='cancelled', updated_at=$1
		 WHERE campaign=$2 AND status='pending'`, now, campaign)
	return tag.RowsAffected(), err
}

func (s *PostgresStore) CancelAll(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE send_jobs SET status='cancelled', updated_at=$1
		 WHERE status='pending'`, now)
	return tag.RowsAffected(), err
}

const lastPlanDayKey = "last_plan_day"

func (s *PostgresStore) LastPlanDay(ctx context.Context) (string, error) {
	var day string
	err := s.Pool.QueryRow(ctx,
		`SELECT value FROM scheduler_meta WHERE key=$1`, lastPlanDayKey).Scan(&day)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return day, err
}

func (s *PostgresStore) SetLastPlanDay(ctx context.Context, day string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO scheduler_meta (key, value) VALUES ($1,$2)
		 ON CONFLICT (key) DO UPDATE SET value=excluded.value`,
		lastPlanDayKey, day)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	err := row.Scan(
		&j.ID, &j.Name, &j.CampaignName, &j.Recipient, &j.SubjectTitle,
		&j.RenderedBody, &j.Day, &j.ClassTime, &j.ScheduledTime,
		&j.GraceSeconds, &j.Status, &j.Attempted, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func scanJobs(rows pgx.Rows) ([]*models.Job, error) {
	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
