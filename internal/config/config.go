package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken           string `envconfig:"BOT_TOKEN" required:"true"`
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel        string `envconfig:"OPENAI_MODEL" default:"gpt-4.1-nano"`
	TranscriptionModel string `envconfig:"TRANSCRIPTION_MODEL" default:"gpt-4o-mini-transcribe"`
	DBPath             string `envconfig:"DB_PATH" default:"./data/vibe_checker.db"`
	DefaultTZ          string `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr           string `envconfig:"HTTP_ADDR" default:":8080"`
	HistoryLimit       int    `envconfig:"HISTORY_LIMIT" default:"50"`
	EnableDialogLog    bool   `envconfig:"ENABLE_DIALOG_LOG" default:"true"`
	PollIntervalSec    int    `envconfig:"POLL_INTERVAL" default:"30"` // scheduling loop tick, seconds
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.PollIntervalSec < 1 || cfg.PollIntervalSec > 60 {
		return cfg, fmt.Errorf("POLL_INTERVAL must be within 1..60 seconds, got %d", cfg.PollIntervalSec)
	}
	if cfg.HistoryLimit < 1 {
		return cfg, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", cfg.HistoryLimit)
	}
	return cfg, nil
}
