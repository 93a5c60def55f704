// Package plan computes the day's send schedule: which recipients get
// which campaign, at what time, and how late the send may run.
package plan

import (
	"strings"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// Resolve returns the deduplicated recipient addresses for one
// campaign. Program matching is case-insensitive; addresses are
// normalized to lower case before deduplication because the same
// person is often entered inconsistently. Order follows the roster,
// first occurrence wins.
func Resolve(campaign models.Campaign, recipients []models.Recipient) []string {
	targets := make(map[string]struct{}, len(campaign.TargetPrograms))
	for _, p := range campaign.TargetPrograms {
		targets[strings.ToLower(p)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var addresses []string
	for _, r := range recipients {
		if _, ok := targets[strings.ToLower(r.Program)]; !ok {
			continue
		}
		addr := strings.ToLower(strings.TrimSpace(r.Email))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	return addresses
}
