package plan

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

var recordHeader = []string{
	"Day", "Recipient", "EmailGroup", "SubjectTitle",
	"ClassTime", "ScheduledTime", "GraceSeconds",
}

// AppendRecord appends one row per scheduled item to the transaction
// log so a post-mortem can always reconstruct what was intended to be
// sent, independent of what the job store later reports. It must run
// before any job is submitted.
func AppendRecord(path string, p models.SchedulePlan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create transaction log dir: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(recordHeader); err != nil {
			return fmt.Errorf("write transaction log header: %w", err)
		}
	}

	for _, item := range p.Items {
		row := []string{
			p.Day,
			item.Recipient,
			item.CampaignName,
			item.SubjectTitle,
			item.ClassTime.Format(time.RFC3339),
			item.ScheduledTime.Format(time.RFC3339),
			strconv.FormatInt(item.GraceSeconds, 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write transaction log row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
