package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const stateVersion = 1

// State is what the client remembers between runs, stored in
// ~/.chatbox/state.json
type State struct {
	Version  int      `json:"version"`
	Nickname string   `json:"nickname,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Active   string   `json:"active,omitempty"`
	Theme    string   `json:"theme,omitempty"`
}

// Manager loads and saves the state file
type Manager struct {
	statePath string
	mu        sync.RWMutex
}

// DefaultDir returns ~/.chatbox
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".chatbox"), nil
}

// NewManager creates a manager keeping its file in dir, creating dir if needed
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Manager{
		statePath: filepath.Join(dir, "state.json"),
	}, nil
}

// Path returns the state file path
func (m *Manager) Path() string {
	return m.statePath
}

// Load reads the state file. A missing file yields an empty state.
func (m *Manager) Load() (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.statePath)
	if os.IsNotExist(err) {
		return &State{Version: stateVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &state, nil
}

// Save writes the state file atomically
func (m *Manager) Save(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.Version = stateVersion
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temp file first, then rename over the real one
	tempFile := m.statePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tempFile, m.statePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result
func (m *Manager) Update(fn func(*State)) error {
	state, err := m.Load()
	if err != nil {
		return err
	}
	fn(state)
	return m.Save(state)
}
