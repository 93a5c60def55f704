package plan

import (
	"time"

	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// Planner turns campaigns, today's class times and the roster into an
// immutable SchedulePlan. Batch size and interval are constant across
// a whole window, never per campaign.
type Planner struct {
	BatchSize     int
	BatchInterval time.Duration
	SafetyMargin  time.Duration
	WindowStarts  map[string]time.Time

	Log *zap.Logger
}

// Plan computes the day's schedule. Campaigns without a class time
// today are dropped with an informational log entry; a window with no
// eligible recipients yields an empty fragment. Identical inputs
// always produce an identical plan.
func (p *Planner) Plan(
	campaigns []models.Campaign,
	classTimes map[string]time.Time,
	recipients []models.Recipient,
	bodies map[string]string,
	now time.Time,
) models.SchedulePlan {
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())

	// partition campaigns by window, keeping declaration order
	byWindow := map[string][]models.Campaign{}
	for _, c := range campaigns {
		classTime, ok := classTimes[c.Name]
		if !ok {
			p.Log.Info("campaign has no class today, skipping",
				zap.String("campaign", c.Name),
			)
			continue
		}
		window := models.WindowAfternoon
		if !classTime.After(noon) {
			window = models.WindowMorningAndNoon
		}
		byWindow[window] = append(byWindow[window], c)
	}

	var items []models.ScheduledItem
	for _, window := range []string{models.WindowMorningAndNoon, models.WindowAfternoon} {
		items = append(items, p.planWindow(window, byWindow[window], classTimes, recipients, bodies)...)
	}

	return models.SchedulePlan{
		Day:   models.PlanDay(now),
		Items: items,
	}
}

// planWindow assigns send times inside one window: consecutive batches
// of at most BatchSize share a send time, each later batch advances by
// BatchInterval. Each campaign is fully batched before the next one
// starts; a batch never spans two campaigns.
func (p *Planner) planWindow(
	window string,
	campaigns []models.Campaign,
	classTimes map[string]time.Time,
	recipients []models.Recipient,
	bodies map[string]string,
) []models.ScheduledItem {
	var items []models.ScheduledItem
	current := p.WindowStarts[window]

	for _, c := range campaigns {
		addresses := Resolve(c, recipients)
		classTime := classTimes[c.Name]

		p.Log.Info("planning campaign",
			zap.String("window", window),
			zap.String("campaign", c.Name),
			zap.Int("recipients", len(addresses)),
		)

		for start := 0; start < len(addresses); start += p.BatchSize {
			end := start + p.BatchSize
			if end > len(addresses) {
				end = len(addresses)
			}

			for _, addr := range addresses[start:end] {
				items = append(items, models.ScheduledItem{
					CampaignName:  c.Name,
					Recipient:     addr,
					SubjectTitle:  c.SubjectTitle,
					RenderedBody:  bodies[c.Name],
					ClassTime:     classTime,
					ScheduledTime: current,
					GraceSeconds:  Grace(current, classTime, p.SafetyMargin),
				})
			}

			current = current.Add(p.BatchInterval)
		}
	}

	return items
}
