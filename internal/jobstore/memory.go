package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// MemoryStore is a non-durable Store for tests and dry runs. All
// transitions happen under one mutex, so the claim semantics match
// the Postgres implementation.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job // by id
	byKey   map[string]string      // dedup key -> id
	planDay string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[string]*models.Job),
		byKey: make(map[string]string),
	}
}

func (s *MemoryStore) Put(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prevID, ok := s.byKey[job.DedupKey()]; ok {
		prev := s.jobs[prevID]
		if prev.Status != models.StatusPending {
			return ErrDuplicate
		}
		delete(s.jobs, prevID)
	}

	cp := *job
	s.jobs[cp.ID] = &cp
	s.byKey[cp.DedupKey()] = cp.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byKey, job.DedupKey())
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.jobs))
	s.jobs = make(map[string]*models.Job)
	s.byKey = make(map[string]string)
	return n, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*models.Job
	for _, job := range s.jobs {
		if job.Status == models.StatusPending {
			cp := *job
			pending = append(pending, &cp)
		}
	}
	sortJobs(pending)
	return pending, nil
}

func (s *MemoryStore) ClaimDue(_ context.Context, now time.Time, limit int) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*models.Job
	for _, job := range s.jobs {
		if job.Status != models.StatusPending {
			continue
		}
		if job.ScheduledTime.After(now) || job.Deadline().Before(now) {
			continue
		}
		due = append(due, job)
	}
	sortJobs(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*models.Job, 0, len(due))
	for _, job := range due {
		job.Status = models.StatusRunning
		job.Attempted = true
		job.UpdatedAt = now
		cp := *job
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (s *MemoryStore) ExpireOverdue(_ context.Context, now time.Time) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*models.Job
	for _, job := range s.jobs {
		if job.Status != models.StatusPending || !job.Deadline().Before(now) {
			continue
		}
		job.Status = models.StatusExpired
		job.UpdatedAt = now
		cp := *job
		expired = append(expired, &cp)
	}
	sortJobs(expired)
	return expired, nil
}

func (s *MemoryStore) MarkExecuted(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != models.StatusRunning {
		return ErrNotFound
	}
	job.Status = models.StatusExecuted
	job.UpdatedAt = now
	return nil
}

func (s *MemoryStore) CancelByCampaign(_ context.Context, campaign string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, job := range s.jobs {
		if job.CampaignName == campaign && job.Status == models.StatusPending {
			job.Status = models.StatusCancelled
			job.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CancelAll(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, job := range s.jobs {
		if job.Status == models.StatusPending {
			job.Status = models.StatusCancelled
			job.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) LastPlanDay(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planDay, nil
}

func (s *MemoryStore) SetLastPlanDay(_ context.Context, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planDay = day
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func sortJobs(jobs []*models.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].ScheduledTime.Equal(jobs[k].ScheduledTime) {
			return jobs[i].ScheduledTime.Before(jobs[k].ScheduledTime)
		}
		if jobs[i].CampaignName != jobs[k].CampaignName {
			return jobs[i].CampaignName < jobs[k].CampaignName
		}
		return jobs[i].Recipient < jobs[k].Recipient
	})
}
