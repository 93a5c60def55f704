package models

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusExecuted  JobStatus = "executed"
	StatusExpired   JobStatus = "expired"
	StatusCancelled JobStatus = "cancelled"
)

// Job is one durable, one-shot unit of work: send one email at its
// scheduled time unless the attempt comes more than GraceSeconds late.
type Job struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"` // "<campaign>::<recipient>"
	CampaignName string    `json:"campaign_name"`
	Recipient    string    `json:"recipient"`
	SubjectTitle string    `json:"subject_title"`
	RenderedBody string    `json:"-"`
	Day          string    `json:"day"`

	ClassTime     time.Time `json:"class_time"`
	ScheduledTime time.Time `json:"scheduled_time"`
	GraceSeconds  int64     `json:"grace_seconds"`

	Status    JobStatus `json:"status"`
	Attempted bool      `json:"attempted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DedupKey identifies a job per (campaign, recipient, day). Submitting
// a second job with the same key replaces the prior pending one.
func (j *Job) DedupKey() string {
	return j.CampaignName + "|" + j.Recipient + "|" + j.Day
}

// Deadline is the last instant at which the job may still fire.
func (j *Job) Deadline() time.Time {
	return j.ScheduledTime.Add(time.Duration(j.GraceSeconds) * time.Second)
}

// NewJob builds a pending job from a planned item.
func NewJob(id string, item ScheduledItem, day string, now time.Time) *Job {
	return &Job{
		ID:            id,
		Name:          fmt.Sprintf("%s::%s", item.CampaignName, item.Recipient),
		CampaignName:  item.CampaignName,
		Recipient:     item.Recipient,
		SubjectTitle:  item.SubjectTitle,
		RenderedBody:  item.RenderedBody,
		Day:           day,
		ClassTime:     item.ClassTime,
		ScheduledTime: item.ScheduledTime,
		GraceSeconds:  item.GraceSeconds,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
