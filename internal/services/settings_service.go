package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"medremind/internal/database"
	"medremind/internal/models"
)

const settingKeyMealTimes = "meal_times"

// SettingsService stores per-user settings, most importantly the meal-time
// profile the schedule engine resolves named times against.
type SettingsService struct {
	db *database.DB

	mu       sync.RWMutex
	defaults models.MealTimeProfile
}

// NewSettingsService creates a settings service with built-in meal defaults.
func NewSettingsService(db *database.DB) *SettingsService {
	return &SettingsService{
		db:       db,
		defaults: models.DefaultMealTimes(),
	}
}

// SetDefaultMealTimes replaces the fallback profile used for users with no
// saved settings. Called at startup and on hot-reload of the defaults file.
func (s *SettingsService) SetDefaultMealTimes(profile models.MealTimeProfile) {
	if err := profile.Validate(); err != nil {
		log.Printf("⚠️ [SETTINGS] Ignoring invalid meal-time defaults: %v", err)
		return
	}
	s.mu.Lock()
	s.defaults = profile
	s.mu.Unlock()
	log.Printf("🍽️ [SETTINGS] Meal-time defaults updated (breakfast %s, dinner %s)",
		profile.Breakfast, profile.Dinner)
}

// GetMealTimes returns the user's meal-time profile, falling back to the
// defaults when none is saved.
func (s *SettingsService) GetMealTimes(ctx context.Context, userID string) (models.MealTimeProfile, error) {
	s.mu.RLock()
	profile := s.defaults
	s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE user_id = ? AND key = ?",
		userID, settingKeyMealTimes).Scan(&value)
	if err == sql.ErrNoRows {
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("failed to read meal times: %w", err)
	}

	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		return s.defaults, fmt.Errorf("failed to decode meal times: %w", err)
	}
	return profile, nil
}

// SetMealTimes validates and saves the user's meal-time profile.
func (s *SettingsService) SetMealTimes(ctx context.Context, userID string, profile models.MealTimeProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode meal times: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, settingKeyMealTimes, string(value), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save meal times: %w", err)
	}
	return nil
}
