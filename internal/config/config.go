// Package config loads settings from an optional YAML file, environment
// variables (LIFEQUEST_ prefix) and defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/robert-crandall/journal-app/internal/storage"
)

type Config struct {
	DBPath string

	// LevelBase is the multiplier in the level curve. The XP formula has
	// churned across requirement revisions, so it is a setting, not a
	// constant.
	LevelBase int

	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	ListenAddr string
}

func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaultDB, err := storage.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	v.SetDefault("db.path", defaultDB)
	v.SetDefault("level.base", 100)
	v.SetDefault("llm.base_url", "https://api.anthropic.com/v1/messages")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("server.addr", ":8080")

	v.SetEnvPrefix("LIFEQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(".lifequest")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		// Missing config file is fine; defaults and env carry it.
		_ = v.ReadInConfig()
	}

	cfg := &Config{
		DBPath:     v.GetString("db.path"),
		LevelBase:  v.GetInt("level.base"),
		LLMBaseURL: v.GetString("llm.base_url"),
		LLMModel:   v.GetString("llm.model"),
		LLMAPIKey:  v.GetString("llm.api_key"),
		ListenAddr: v.GetString("server.addr"),
	}
	if cfg.LevelBase <= 0 {
		return nil, fmt.Errorf("level.base must be positive, got %d", cfg.LevelBase)
	}
	return cfg, nil
}
