package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// CampaignConfig is the operator-maintained campaign file. Window start
// times are 24h "HH:MM" strings resolved against the planning day.
type CampaignConfig struct {
	BatchSize     int               `yaml:"batch_size"`
	BatchInterval Duration          `yaml:"batch_interval"`
	StartSendTime map[string]string `yaml:"start_send_times"`
	Campaigns     []models.Campaign `yaml:"campaigns"`
}

// Duration wraps time.Duration for YAML fields like "5m" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoadCampaigns reads and parses the campaign YAML file. Shape problems
// are reported here; cross checks against the roster and timetable
// happen in Validate.
func LoadCampaigns(path string) (*CampaignConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign file: %w", err)
	}

	var cfg CampaignConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse campaign file %s: %w", path, err)
	}

	return &cfg, nil
}

// WindowStart resolves a window's "HH:MM" start to an instant on the
// same calendar day as now.
func (c *CampaignConfig) WindowStart(window string, now time.Time) (time.Time, error) {
	raw, ok := c.StartSendTime[window]
	if !ok {
		return time.Time{}, fmt.Errorf("no start time configured for window %q", window)
	}
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("window %q start %q: %w", window, raw, err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), nil
}
