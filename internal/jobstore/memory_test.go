package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

var base = time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC)

func testJob(id, campaign, recipient string, scheduled time.Time, grace int64) *models.Job {
	return &models.Job{
		ID:            id,
		Name:          campaign + "::" + recipient,
		CampaignName:  campaign,
		Recipient:     recipient,
		SubjectTitle:  "s",
		Day:           "2026-08-28",
		ClassTime:     scheduled.Add(2 * time.Hour),
		ScheduledTime: scheduled,
		GraceSeconds:  grace,
		Status:        models.StatusPending,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
}

func TestPutReplacesPendingDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	first := testJob("id-1", "c", "a@gym.com", base, 60)
	require.NoError(t, s.Put(ctx, first))

	second := testJob("id-2", "c", "a@gym.com", base.Add(time.Minute), 60)
	require.NoError(t, s.Put(ctx, second))

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "id-2", pending[0].ID)

	_, err = s.Get(ctx, "id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsDuplicateOfFinishedJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	first := testJob("id-1", "c", "a@gym.com", base, 60)
	require.NoError(t, s.Put(ctx, first))

	_, err := s.ClaimDue(ctx, base, 10)
	require.NoError(t, err)
	require.NoError(t, s.MarkExecuted(ctx, "id-1", base))

	err = s.Put(ctx, testJob("id-2", "c", "a@gym.com", base, 60))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestClaimDueRespectsScheduleAndGrace(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("due", "c", "a@gym.com", base, 300)))
	require.NoError(t, s.Put(ctx, testJob("future", "c", "b@gym.com", base.Add(time.Hour), 300)))
	require.NoError(t, s.Put(ctx, testJob("late", "c", "d@gym.com", base.Add(-time.Hour), 60)))

	now := base.Add(time.Minute)
	claimed, err := s.ClaimDue(ctx, now, 10)
	require.NoError(t, err)

	require.Len(t, claimed, 1)
	assert.Equal(t, "due", claimed[0].ID)
	assert.Equal(t, models.StatusRunning, claimed[0].Status)
	assert.True(t, claimed[0].Attempted)

	// second poll claims nothing: at most one claim per job
	claimed, err = s.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestClaimDueHonorsLimitInScheduleOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("b", "c", "b@gym.com", base.Add(time.Minute), 3600)))
	require.NoError(t, s.Put(ctx, testJob("a", "c", "a@gym.com", base, 3600)))

	claimed, err := s.ClaimDue(ctx, base.Add(5*time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "a", claimed[0].ID)
}

func TestExpireOverdueIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("late", "c", "a@gym.com", base, 60)))

	expired, err := s.ExpireOverdue(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, models.StatusExpired, expired[0].Status)
	assert.False(t, expired[0].Attempted)

	// an expired job can never be claimed
	claimed, err := s.ClaimDue(ctx, base.Add(2*time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestExpireOverdueBoundaryIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("j", "c", "a@gym.com", base, 60)))

	// exactly at the deadline: still claimable, not expired
	deadline := base.Add(60 * time.Second)
	expired, err := s.ExpireOverdue(ctx, deadline)
	require.NoError(t, err)
	assert.Empty(t, expired)

	claimed, err := s.ClaimDue(ctx, deadline, 10)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestMarkExecutedOnlyFromRunning(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("j", "c", "a@gym.com", base, 60)))

	// pending jobs cannot jump straight to executed
	assert.ErrorIs(t, s.MarkExecuted(ctx, "j", base), ErrNotFound)

	_, err := s.ClaimDue(ctx, base, 10)
	require.NoError(t, err)
	require.NoError(t, s.MarkExecuted(ctx, "j", base))

	job, err := s.Get(ctx, "j")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuted, job.Status)
}

func TestCancelByCampaignOnlyTouchesPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("p1", "alpha", "a@gym.com", base.Add(time.Hour), 60)))
	require.NoError(t, s.Put(ctx, testJob("p2", "alpha", "b@gym.com", base.Add(time.Hour), 60)))
	require.NoError(t, s.Put(ctx, testJob("other", "beta", "d@gym.com", base.Add(time.Hour), 60)))
	require.NoError(t, s.Put(ctx, testJob("run", "alpha", "e@gym.com", base, 3600)))
	_, err := s.ClaimDue(ctx, base, 10)
	require.NoError(t, err)

	n, err := s.CancelByCampaign(ctx, "alpha", base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	running, err := s.Get(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, running.Status)

	untouched, err := s.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, untouched.Status)

	// cancelled is terminal: never claimable again
	claimed, err := s.ClaimDue(ctx, base.Add(2*time.Hour), 10)
	require.NoError(t, err)
	for _, j := range claimed {
		assert.NotEqual(t, "p1", j.ID)
		assert.NotEqual(t, "p2", j.ID)
	}
}

func TestCancelAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("p1", "alpha", "a@gym.com", base, 60)))
	require.NoError(t, s.Put(ctx, testJob("p2", "beta", "b@gym.com", base, 60)))

	n, err := s.CancelAll(ctx, base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPlanningWatermarkRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	day, err := s.LastPlanDay(ctx)
	require.NoError(t, err)
	assert.Empty(t, day)

	require.NoError(t, s.SetLastPlanDay(ctx, "2026-08-28"))

	day, err = s.LastPlanDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", day)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, testJob("p1", "alpha", "a@gym.com", base, 60)))
	require.NoError(t, s.Put(ctx, testJob("p2", "beta", "b@gym.com", base, 60)))

	n, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}
