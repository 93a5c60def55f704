package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// CSVRecipientSource reads the customer roster spreadsheet. The CSV
// must contain Emails, Programs and Subscribed columns
// (case-insensitive); Emails and Programs cells may hold several
// comma-separated values, each combination becoming one Recipient.
type CSVRecipientSource struct {
	Path string
}

func (s *CSVRecipientSource) AllRecipients() ([]models.Recipient, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open customers file: %w", err)
	}
	defer f.Close()

	return ParseCustomers(f)
}

// ParseCustomers parses roster rows from r. Unsubscribed rows are
// skipped; malformed rows are skipped rather than failing the whole
// roster.
func ParseCustomers(r io.Reader) ([]models.Recipient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // malformed rows are skipped, not fatal

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read customers header: %w", err)
	}

	emailsIdx, programsIdx, subscribedIdx := -1, -1, -1
	for i, h := range headers {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), "emails"):
			emailsIdx = i
		case strings.EqualFold(strings.TrimSpace(h), "programs"):
			programsIdx = i
		case strings.EqualFold(strings.TrimSpace(h), "subscribed"):
			subscribedIdx = i
		}
	}
	if emailsIdx == -1 || programsIdx == -1 || subscribedIdx == -1 {
		return nil, errors.New("customers csv must contain Emails, Programs and Subscribed columns")
	}

	var recipients []models.Recipient
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read customers row: %w", err)
		}
		if len(record) != len(headers) {
			// skip malformed row
			continue
		}
		if !parseBool(record[subscribedIdx]) {
			continue
		}

		for _, email := range splitList(record[emailsIdx]) {
			for _, program := range splitList(record[programsIdx]) {
				recipients = append(recipients, models.Recipient{
					Email:   email,
					Program: program,
				})
			}
		}
	}

	return recipients, nil
}

// splitList explodes a comma-separated cell into trimmed values.
func splitList(cell string) []string {
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
