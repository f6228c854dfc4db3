package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cleanchistwood/cleanbot/core/cmd"
	coreconfig "github.com/cleanchistwood/cleanbot/core/config"
	coredatabase "github.com/cleanchistwood/cleanbot/core/database"
)

// BotSettings holds the hiring-bot specific knobs on top of the core
// Telegram configuration.
type BotSettings struct {
	// QuestionsPath points at the editable questionnaire file; a
	// default file is written there on first start.
	QuestionsPath string `yaml:"questions_path" envconfig:"BOT_QUESTIONS_PATH"`
	// Timezone is used for broadcast deadlines and reminder schedules.
	Timezone string `yaml:"timezone" envconfig:"BOT_TIMEZONE"`
	// DirectoryRefreshSpec is a cron spec for periodic group refresh.
	DirectoryRefreshSpec string `yaml:"directory_refresh_spec" envconfig:"BOT_DIRECTORY_REFRESH_SPEC"`
	// ReminderSpec is a cron spec for the daily internship sweep.
	ReminderSpec string `yaml:"reminder_spec" envconfig:"BOT_REMINDER_SPEC"`
	// GroupSendPerSecond caps outgoing group messages per second.
	GroupSendPerSecond float64 `yaml:"group_send_per_second" envconfig:"BOT_GROUP_SEND_PER_SECOND"`

	HRHandle     string `yaml:"hr_handle" envconfig:"BOT_HR_HANDLE"`
	InstagramURL string `yaml:"instagram_url" envconfig:"BOT_INSTAGRAM_URL"`
	SiteURL      string `yaml:"site_url" envconfig:"BOT_SITE_URL"`
}

// Config aggregates core, database and bot configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Bot      BotSettings         `yaml:"bot"`
}

// CoreConfig satisfies cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// LoadConfig reads YAML configuration, applies environment overrides
// and fills bot defaults.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	applyBotDefaults(&cfg.Bot)
	return &cfg, nil
}

func applyBotDefaults(b *BotSettings) {
	if b.QuestionsPath == "" {
		b.QuestionsPath = "questions.yaml"
	}
	if b.Timezone == "" {
		b.Timezone = "Europe/Kyiv"
	}
	if b.DirectoryRefreshSpec == "" {
		b.DirectoryRefreshSpec = "@every 6h"
	}
	if b.ReminderSpec == "" {
		b.ReminderSpec = "0 9 * * *"
	}
	if b.GroupSendPerSecond <= 0 {
		b.GroupSendPerSecond = 0.5
	}
	if b.HRHandle == "" {
		b.HRHandle = "CleanHR"
	}
	if b.InstagramURL == "" {
		b.InstagramURL = "https://www.instagram.com/clean_chistwood"
	}
	if b.SiteURL == "" {
		b.SiteURL = "https://www.cleanchistwood.com.ua/"
	}
}
