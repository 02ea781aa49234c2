package services

import (
	"sync"

	"github.com/loopin/signage-agent/internal/models"
)

// SettingsStore holds the account settings most recently fetched by the
// playlist synchronizer. Renderers read it concurrently with sync updates.
type SettingsStore struct {
	mu       sync.RWMutex
	settings models.Settings
}

// NewSettingsStore creates an empty settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Settings returns the current settings.
func (s *SettingsStore) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the stored settings.
func (s *SettingsStore) Update(settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}
