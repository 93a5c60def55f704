package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kayvonkhosrowpour/jma-send/internal/jobstore"
	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// Handler serves the read-only ops surface next to /metrics. Mutations
// go through the jmactl command, never HTTP.
type Handler struct {
	Store jobstore.Store
	Log   *zap.Logger
}

type campaignStatus struct {
	Campaign  string    `json:"campaign"`
	Pending   int       `json:"pending"`
	FirstSend time.Time `json:"first_send"`
	LastSend  time.Time `json:"last_send"`
}

// PendingJobs reports pending jobs grouped by campaign.
func (h *Handler) PendingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListPending(r.Context())
	if err != nil {
		h.Log.Error("failed to list pending jobs", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	grouped := groupByCampaign(jobs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total":     len(jobs),
		"campaigns": grouped,
	})
}

func groupByCampaign(jobs []*models.Job) []campaignStatus {
	index := map[string]int{}
	var out []campaignStatus

	for _, job := range jobs {
		i, ok := index[job.CampaignName]
		if !ok {
			i = len(out)
			index[job.CampaignName] = i
			out = append(out, campaignStatus{
				Campaign:  job.CampaignName,
				FirstSend: job.ScheduledTime,
				LastSend:  job.ScheduledTime,
			})
		}
		out[i].Pending++
		if job.ScheduledTime.Before(out[i].FirstSend) {
			out[i].FirstSend = job.ScheduledTime
		}
		if job.ScheduledTime.After(out[i].LastSend) {
			out[i].LastSend = job.ScheduledTime
		}
	}

	return out
}
