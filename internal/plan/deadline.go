package plan

import "time"

// Grace returns how many seconds late a send may still run, derived
// from the gap between its send time and its class deadline minus the
// safety margin. The floor of 1 second is deliberate: an item already
// inside the margin is let through with a near-zero window and is
// expected to expire instead of blocking the batch pipeline.
func Grace(scheduledTime, classTime time.Time, safetyMargin time.Duration) int64 {
	grace := classTime.Sub(scheduledTime) - safetyMargin
	secs := int64(grace / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
