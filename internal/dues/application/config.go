package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ScheduleConfig defines when the automatic reconciliation runs.
type ScheduleConfig struct {
	DailyAt string `yaml:"daily_at"`
}

// Config defines dues engine configuration.
type Config struct {
	Currency    string         `yaml:"currency"`
	GraceMonths int            `yaml:"grace_months"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	WebhookURL  string         `yaml:"webhook_url"`
}

// LoadConfig loads configuration from the DUES_CONFIG yaml file when set,
// with env fallbacks for every field.
func LoadConfig() (Config, error) {
	cfg := Config{
		Currency:    getenvDefault("DUES_CURRENCY", "EUR"),
		GraceMonths: getenvIntDefault("DUES_GRACE_MONTHS", 1),
		WebhookURL:  os.Getenv("DUES_WEBHOOK_URL"),
	}

	if path := os.Getenv("DUES_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("DUES_RECONCILE_DAILY_AT", "03:00")
	}
	if cfg.GraceMonths < 0 {
		cfg.GraceMonths = 0
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
