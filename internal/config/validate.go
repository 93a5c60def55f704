package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

var hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate runs the full pre-planning check of the campaign config
// against the loaded timetable names and roster programs. It returns
// every problem found, not just the first; planning must not start
// when the list is non-empty.
func Validate(cfg *CampaignConfig, timetableNames []string, recipients []models.Recipient) (bool, []string) {
	var errs []string

	if cfg.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("batch_size must be >= 1, got %d", cfg.BatchSize))
	}
	if cfg.BatchInterval.Std() < 1 {
		errs = append(errs, "batch_interval must be a positive duration")
	}

	for _, window := range []string{models.WindowMorningAndNoon, models.WindowAfternoon} {
		raw, ok := cfg.StartSendTime[window]
		if !ok {
			errs = append(errs, fmt.Sprintf("start_send_times missing window %q", window))
			continue
		}
		if !hhmmRe.MatchString(strings.TrimSpace(raw)) {
			errs = append(errs, fmt.Sprintf("start_send_times[%s]: %q does not match 24-HR time format (examples: 08:00, 14:30)", window, raw))
		}
	}

	if len(cfg.Campaigns) == 0 {
		errs = append(errs, "campaigns contains no elements")
	}

	timetable := make(map[string]struct{}, len(timetableNames))
	for _, n := range timetableNames {
		timetable[n] = struct{}{}
	}
	programs := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		programs[strings.ToLower(r.Program)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(cfg.Campaigns))
	for _, c := range cfg.Campaigns {
		if c.Name == "" {
			errs = append(errs, "campaign with empty name")
			continue
		}
		if _, dup := seen[c.Name]; dup {
			errs = append(errs, fmt.Sprintf("campaign %q declared more than once", c.Name))
		}
		seen[c.Name] = struct{}{}

		// campaign name must match a timetable row exactly (case-sensitive)
		if _, ok := timetable[c.Name]; !ok {
			errs = append(errs, fmt.Sprintf("campaign %q is not in the timetable", c.Name))
		}

		if c.SubjectTitle == "" {
			errs = append(errs, fmt.Sprintf("campaign %q has an empty subject", c.Name))
		}
		if len(c.TargetPrograms) == 0 {
			errs = append(errs, fmt.Sprintf("campaign %q has no target programs", c.Name))
		}
		for _, p := range c.TargetPrograms {
			if _, ok := programs[strings.ToLower(p)]; !ok {
				errs = append(errs, fmt.Sprintf("campaign %q targets program %q which no customer is enrolled in", c.Name, p))
			}
		}

		if err := validateBodyFile(c.BodyPath); err != nil {
			errs = append(errs, fmt.Sprintf("campaign %q body: %v", c.Name, err))
		}
	}

	return len(errs) == 0, errs
}

func validateBodyFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("body_path is empty")
	}
	if !strings.EqualFold(filepath.Ext(path), ".html") {
		return fmt.Errorf("%s does not have an .html extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !isValidHTML(string(data)) {
		return fmt.Errorf("%s is not valid HTML", path)
	}
	return nil
}

// isValidHTML requires at least one real element in the document.
func isValidHTML(body string) bool {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return false
	}
	return hasElement(doc)
}

func hasElement(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html", "head", "body":
			// injected by the parser even for junk input
		default:
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasElement(c) {
			return true
		}
	}
	return false
}
