// Package roster loads the customer roster and the class timetable
// from CSV spreadsheets exported by the front desk.
package roster

import (
	"time"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// RecipientSource yields every subscribed (email, program) enrollment.
type RecipientSource interface {
	AllRecipients() ([]models.Recipient, error)
}

// TimetableSource yields class start instants for the current day,
// keyed by campaign/class name. An empty map means no classes today,
// which is an ordinary outcome, not an error.
type TimetableSource interface {
	ClassTimesForToday(now time.Time) (map[string]time.Time, error)
	ClassNames() ([]string, error)
}
