package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		QuizBotToken string  `yaml:"quiz_bot_token"`
		HelpBotToken string  `yaml:"help_bot_token"`
		TargetChats  []int64 `yaml:"target_chats"`
	} `yaml:"telegram"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		ContentPath     string `yaml:"content_path"`
		IntervalMinutes int    `yaml:"interval_minutes"`
	} `yaml:"quiz"`
	Retention struct {
		AnswerDays int `yaml:"answer_days"`
		EntryDays  int `yaml:"entry_days"`
	} `yaml:"retention"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateQuizBot checks everything the quiz bot cannot start without.
func (c Config) ValidateQuizBot() error {
	if c.Telegram.QuizBotToken == "" {
		return fmt.Errorf("telegram.quiz_bot_token is required")
	}
	if len(c.Telegram.TargetChats) == 0 {
		return fmt.Errorf("telegram.target_chats is required")
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required")
	}
	return nil
}

// ValidateHelpBot checks everything the help bot cannot start without.
func (c Config) ValidateHelpBot() error {
	if c.Telegram.HelpBotToken == "" {
		return fmt.Errorf("telegram.help_bot_token is required")
	}
	return nil
}

// QuizInterval is the gap between scheduled batches, defaulting to two hours.
func (c Config) QuizInterval() time.Duration {
	if c.Quiz.IntervalMinutes <= 0 {
		return 120 * time.Minute
	}
	return time.Duration(c.Quiz.IntervalMinutes) * time.Minute
}

// AnswerRetention is how long raw answer events are kept, defaulting to 30 days.
func (c Config) AnswerRetention() time.Duration {
	if c.Retention.AnswerDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.Retention.AnswerDays) * 24 * time.Hour
}

// EntryRetention is how long daily/weekly leaderboard entries are kept.
// Zero keeps them forever.
func (c Config) EntryRetention() time.Duration {
	if c.Retention.EntryDays <= 0 {
		return 0
	}
	return time.Duration(c.Retention.EntryDays) * 24 * time.Hour
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
