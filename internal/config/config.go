// Package config loads the chatbox TOML configuration and keeps the small
// JSON state file that remembers the last session.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/concord-chat/chatbox/internal/themes"
)

// Config holds the client configuration
type Config struct {
	Nickname  string          `toml:"nickname"`
	Theme     string          `toml:"theme"`
	ThemesDir string          `toml:"themes_dir"`
	Channels  []string        `toml:"channels"`
	LogFile   string          `toml:"log_file"`
	Relay     RelayConfig     `toml:"relay"`
	Highlight HighlightConfig `toml:"highlight"`
}

// RelayConfig holds relay connection settings
type RelayConfig struct {
	Address           string `toml:"address"`
	ReconnectAttempts int    `toml:"reconnect_attempts"`
}

// HighlightConfig lists extra words highlighted like the local nickname
type HighlightConfig struct {
	Keywords []string `toml:"keywords"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		Theme:     "classic",
		ThemesDir: themes.UserThemesDir(),
		Relay: RelayConfig{
			Address:           "ws://localhost:8080",
			ReconnectAttempts: 5,
		},
	}
}


// DefaultPaths returns the locations searched for a config file, in order
func DefaultPaths() []string {
	paths := []string{
		"./chatbox.toml",
		"./config/chatbox.toml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "chatbox", "chatbox.toml"))
	}
	return paths
}

// Find returns the first existing path, or "" if none exists
func Find(paths []string) string {
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads path over the defaults. An empty path searches DefaultPaths and
// falls back to the defaults when no file exists. The path actually read is
// returned alongside the config.
func Load(path string) (*Config, string, error) {
	config := DefaultConfig()

	if path == "" {
		path = Find(DefaultPaths())
		if path == "" {
			return config, "", nil
		}
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, path, err
	}
	return config, path, nil
}

// LoadTOML decodes the TOML file at path into v, leaving fields the file does
// not mention untouched
func LoadTOML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, v); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("failed to parse config file %s at %d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
