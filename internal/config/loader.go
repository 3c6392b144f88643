package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over the YAML file.
const (
	EnvBotToken  = "TELEGRAM_BOT_TOKEN"
	EnvChatID    = "TELEGRAM_CHAT_ID"
	EnvSearchURL = "GUMTREE_SEARCH_URL"
	EnvSeenFile  = "SEEN_ADS_FILE"
)

// LoadEnvFiles loads .env.local and then .env into the process environment.
// Missing files are ignored; variables already set are never overwritten.
func LoadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig reads the YAML file at filePath on top of Default(), applies
// environment overrides and validates the result. A missing file is not an
// error when the environment supplies everything required.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(filePath)
	switch {
	case err == nil:
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Printf("Warning: failed to close config file: %v", closeErr)
			}
		}()
		if err := decode(file, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBotToken); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv(EnvChatID); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv(EnvSearchURL); v != "" {
		cfg.Search.URL = v
	}
	if v := os.Getenv(EnvSeenFile); v != "" {
		cfg.Storage.SeenFile = v
	}
}
