package instance

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting returns the value for a settings key, or "" when unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a settings key/value pair, replacing any existing value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// IsOnboardingCompleted reports whether initial panel setup has finished.
func (s *Store) IsOnboardingCompleted() (bool, error) {
	value, err := s.GetSetting("onboarding_completed")
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetOnboardingCompleted marks initial panel setup as finished.
func (s *Store) SetOnboardingCompleted() error {
	return s.SetSetting("onboarding_completed", "true")
}
