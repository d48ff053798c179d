package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Extract ExtractConfig
	Rules   RulesConfig
	Store   StoreConfig
	Worker  WorkerConfig
}

// ExtractConfig holds text-extraction configuration.
type ExtractConfig struct {
	Pdftotext string
	MaxPages  int
	Timeout   time.Duration
}

// RulesConfig holds checklist-configuration loading options.
type RulesConfig struct {
	ConfigDir string
}

// StoreConfig holds the file-backed store configuration.
type StoreConfig struct {
	Path string
}

// WorkerConfig holds async processing configuration.
type WorkerConfig struct {
	Workers     int
	QueueSize   int
	CaseTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			MaxPages:  getEnvAsInt("EXTRACT_MAX_PAGES", 0),
			Timeout:   getEnvAsDuration("EXTRACT_TIMEOUT", 60*time.Second),
		},
		Rules: RulesConfig{
			ConfigDir: getEnv("CHECKLIST_CONFIG_DIR", "./configs"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "./edn.db"),
		},
		Worker: WorkerConfig{
			Workers:     getEnvAsInt("CASE_WORKERS", 4),
			QueueSize:   getEnvAsInt("CASE_QUEUE_SIZE", 256),
			CaseTimeout: getEnvAsDuration("CASE_TIMEOUT", 3*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Rules.ConfigDir == "" {
		return NewAppError("CONFIG_ERROR", "CHECKLIST_CONFIG_DIR is required", ErrInvalidInput)
	}
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "STORE_PATH is required", ErrInvalidInput)
	}
	return nil
}
