package themes

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the theme used when none is configured
const DefaultName = "classic"

//go:embed themes/*.toml
var embeddedThemes embed.FS

// UserThemesDir returns ~/.chatbox/themes, or "" if there is no home directory
func UserThemesDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".chatbox", "themes")
}

// GetTheme loads a theme by name. Lookup order:
//  1. <userDir>/<name>.toml  (user override)
//  2. Embedded themes/<name>.toml
//  3. DefaultTheme() when name is the default
func GetTheme(userDir, name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}

	if userDir != "" {
		if t, err := LoadTheme(filepath.Join(userDir, name+".toml")); err == nil {
			return t, nil
		}
	}

	data, err := embeddedThemes.ReadFile("themes/" + name + ".toml")
	if err == nil {
		t, err := parseTheme(data)
		if err != nil {
			return nil, fmt.Errorf("embedded theme %q: %w", name, err)
		}
		return t, nil
	}

	if name != DefaultName {
		return nil, fmt.Errorf("theme %q not found", name)
	}
	return DefaultTheme(), nil
}

// ListAvailableThemes returns embedded theme names followed by any user
// themes that do not shadow them
func ListAvailableThemes(userDir string) []string {
	seen := make(map[string]bool)
	var names []string

	entries, _ := fs.ReadDir(embeddedThemes, "themes")
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			name := strings.TrimSuffix(e.Name(), ".toml")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if userDir != "" {
		user, _ := ListThemes(userDir)
		for _, name := range user {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
