package models

import "time"

// Window names. Classes starting at or before local noon send in the
// morning_and_noon window, everything else in afternoon.
const (
	WindowMorningAndNoon = "morning_and_noon"
	WindowAfternoon      = "afternoon"
)

// ScheduledItem is one planned send: a single (campaign, recipient)
// pair with its assigned send time and expiry tolerance. The body is
// rendered once at planning time and never re-rendered.
type ScheduledItem struct {
	CampaignName  string
	Recipient     string
	SubjectTitle  string
	RenderedBody  string
	ClassTime     time.Time
	ScheduledTime time.Time
	GraceSeconds  int64
}

// SchedulePlan is the ordered result of one planning run. It is built
// once per day and never mutated afterwards; job state lives in the
// job store, not here.
type SchedulePlan struct {
	Day   string // YYYY-MM-DD in the scheduler's timezone
	Items []ScheduledItem
}

// PlanDay formats t as a plan day key.
func PlanDay(t time.Time) string {
	return t.Format("2006-01-02")
}
