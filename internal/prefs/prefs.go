// Package prefs holds plain, non-secret app preferences.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Preferences is the on-disk preferences document
type Preferences struct {
	OnboardingComplete bool `json:"onboarding_complete"`
}

// File reads and writes Preferences as JSON
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a preferences file at path
func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the stored preferences, or zero values if none are saved yet
func (f *File) Load() (Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// SetOnboardingComplete records the onboarding flag
func (f *File) SetOnboardingComplete(done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.load()
	if err != nil {
		return err
	}
	p.OnboardingComplete = done

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	return os.WriteFile(f.path, data, 0644)
}

func (f *File) load() (Preferences, error) {
	var p Preferences
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return p, nil
}
