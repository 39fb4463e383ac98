package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"medremind/internal/models"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string

	// Prescription extraction (OpenAI-compatible chat completions endpoint)
	ExtractionBaseURL string
	ExtractionAPIKey  string
	ExtractionModel   string
	ExtractionTimeout time.Duration

	// DodoPayments configuration
	DodoAPIKey        string
	DodoWebhookSecret string
	DodoEnvironment   string // "live" or "test"
	DodoReturnURL     string // where checkout redirects after payment

	// Optional YAML file with meal-time defaults, hot-reloaded on change
	MealTimesFile string

	// Voice announcement debounce window for reminder triggers
	AnnounceDebounce time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3001"),
		DatabasePath: getEnv("DATABASE_PATH", "medremind.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		ExtractionBaseURL: getEnv("EXTRACTION_BASE_URL", "https://api.openai.com/v1"),
		ExtractionAPIKey:  getEnv("EXTRACTION_API_KEY", ""),
		ExtractionModel:   getEnv("EXTRACTION_MODEL", "gpt-4o-mini"),
		ExtractionTimeout: getDurationEnv("EXTRACTION_TIMEOUT", 60*time.Second),

		DodoAPIKey:        getEnv("DODO_API_KEY", ""),
		DodoWebhookSecret: getEnv("DODO_WEBHOOK_SECRET", ""),
		DodoEnvironment:   getEnv("DODO_ENVIRONMENT", "test"),
		DodoReturnURL:     getEnv("DODO_RETURN_URL", "medremind://subscription/complete"),

		MealTimesFile: getEnv("MEALTIMES_FILE", ""),

		AnnounceDebounce: getDurationEnv("ANNOUNCE_DEBOUNCE", 55*time.Second),
	}
}

// LoadMealTimes loads a meal-time profile from a YAML file.
func LoadMealTimes(filePath string) (*models.MealTimeProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read meal times file: %w", err)
	}

	profile := models.DefaultMealTimes()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse meal times YAML: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meal times file: %w", err)
	}

	return &profile, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
