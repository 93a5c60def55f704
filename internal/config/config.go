package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@jma-send.com"`

	// ----------------------------
	// Input files
	// ----------------------------
	CampaignFile   string `envconfig:"CAMPAIGN_FILE" default:"campaigns.yaml"`
	CustomersPath  string `envconfig:"CUSTOMERS_PATH" default:"customers.csv"`
	TimetablePath  string `envconfig:"TIMETABLE_PATH" default:"timetable.csv"`
	TransactionLog string `envconfig:"TRANSACTION_LOG" default:"logs/transaction_log.csv"`

	// ----------------------------
	// Planning
	// ----------------------------
	PlanningCron    string `envconfig:"PLANNING_CRON" default:"30 3 * * 1-6"`
	SafetyMarginMin int    `envconfig:"SAFETY_MARGIN_MIN" default:"30"`
	Timezone        string `envconfig:"TIMEZONE" default:"Local"`

	// ----------------------------
	// Delivery workers
	// ----------------------------
	WorkerCount    int `envconfig:"WORKER_COUNT" default:"20"`
	RateLimit      int `envconfig:"RATE_LIMIT" default:"10"`
	PollIntervalMS int `envconfig:"POLL_INTERVAL_MS" default:"1000"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Job store
	// ----------------------------
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
