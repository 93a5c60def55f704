package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

func writeBody(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func validTestConfig(t *testing.T) *CampaignConfig {
	t.Helper()
	return &CampaignConfig{
		BatchSize:     50,
		BatchInterval: Duration(5 * time.Minute),
		StartSendTime: map[string]string{
			models.WindowMorningAndNoon: "04:00",
			models.WindowAfternoon:      "12:30",
		},
		Campaigns: []models.Campaign{{
			Name:           "6am_class",
			SubjectTitle:   "See you at 6!",
			BodyPath:       writeBody(t, "body.html", "<html><body><p>hi</p></body></html>"),
			TargetPrograms: []string{"Tigers"},
		}},
	}
}

var testRecipients = []models.Recipient{{Email: "a@gym.com", Program: "Tigers"}}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	ok, errs := Validate(validTestConfig(t), []string{"6am_class"}, testRecipients)
	assert.True(t, ok, "unexpected problems: %v", errs)
	assert.Empty(t, errs)
}

func TestValidateRejectsCampaignMissingFromTimetable(t *testing.T) {
	ok, errs := Validate(validTestConfig(t), []string{"some_other_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not in the timetable")
}

func TestValidateTimetableMatchIsCaseSensitive(t *testing.T) {
	ok, _ := Validate(validTestConfig(t), []string{"6AM_CLASS"}, testRecipients)
	assert.False(t, ok)
}

func TestValidateRejectsUnknownTargetProgram(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns[0].TargetPrograms = []string{"Fencing"}

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Fencing")
}

func TestValidateProgramMatchIsCaseInsensitive(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns[0].TargetPrograms = []string{"TIGERS"}

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.True(t, ok, "unexpected problems: %v", errs)
}

func TestValidateRejectsBadWindowTime(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.StartSendTime[models.WindowAfternoon] = "25:99"

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "24-HR time format")
}

func TestValidateRejectsEmptyCampaignList(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns = nil

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no elements")
}

func TestValidateRejectsNonHTMLBody(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns[0].BodyPath = writeBody(t, "body.html", "just some text, no markup")

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not valid HTML")
}

func TestValidateRejectsWrongExtension(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns[0].BodyPath = writeBody(t, "body.txt", "<p>hi</p>")

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], ".html extension")
}

func TestValidateRejectsMissingBodyFile(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Campaigns[0].BodyPath = filepath.Join(t.TempDir(), "missing.html")

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	require.Len(t, errs, 1)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.BatchSize = 0
	cfg.Campaigns[0].SubjectTitle = ""
	delete(cfg.StartSendTime, models.WindowAfternoon)

	ok, errs := Validate(cfg, []string{"6am_class"}, testRecipients)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestLoadCampaignsParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaigns.yaml")
	yaml := strings.TrimSpace(`
batch_size: 50
batch_interval: 5m
start_send_times:
  morning_and_noon: "04:00"
  afternoon: "12:30"
campaigns:
  - name: 6am_class
    subject: "See you at 6!"
    body_path: templates/6am.html
    target_programs: [Tigers, Dragons]
`)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadCampaigns(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.BatchInterval.Std())
	require.Len(t, cfg.Campaigns, 1)
	assert.Equal(t, "6am_class", cfg.Campaigns[0].Name)
	assert.Equal(t, []string{"Tigers", "Dragons"}, cfg.Campaigns[0].TargetPrograms)

	start, err := cfg.WindowStart(models.WindowMorningAndNoon, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC), start)
}

func TestLoadCampaignsRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_interval: soon\n"), 0o644))

	_, err := LoadCampaigns(path)
	assert.Error(t, err)
}
