// Package themes maps transcript tags and the terminal UI chrome to lipgloss
// styles loaded from TOML theme files.
package themes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/concord-chat/chatbox/internal/models"
)

// Theme is a complete color theme
type Theme struct {
	Meta ThemeMeta `toml:"meta"`
	Tags TagStyles `toml:"tags"`
	UI   UIColors  `toml:"ui"`
}

// ThemeMeta contains metadata about the theme
type ThemeMeta struct {
	Name    string `toml:"name"`
	Author  string `toml:"author"`
	Variant string `toml:"variant"` // "dark" or "light"
}

// TagStyle is how runs of one tag are drawn. An empty foreground keeps the
// terminal default.
type TagStyle struct {
	Foreground string `toml:"foreground"`
	Bold       bool   `toml:"bold"`
	Italic     bool   `toml:"italic"`
	Underline  bool   `toml:"underline"`
}

// TagStyles holds one style per transcript tag
type TagStyles struct {
	Nick    TagStyle `toml:"nick"`
	Self    TagStyle `toml:"self"`
	Message TagStyle `toml:"message"`
	System  TagStyle `toml:"system"`
	URL     TagStyle `toml:"url"`
}

// UIColors colors the chrome around the transcript
type UIColors struct {
	Border        string `toml:"border"`
	BorderFocus   string `toml:"border_focus"`
	Channel       string `toml:"channel"`
	ChannelActive string `toml:"channel_active"`
	Status        string `toml:"status"`
	Error         string `toml:"error"`
	Disabled      string `toml:"disabled"`
}

// Styles contains pre-computed lipgloss styles for the theme
type Styles struct {
	// Transcript styles by tag
	Tags map[models.Tag]lipgloss.Style

	// Chrome
	Border        lipgloss.Style
	BorderFocused lipgloss.Style
	Channel       lipgloss.Style
	ChannelActive lipgloss.Style
	Status        lipgloss.Style
	Error         lipgloss.Style
	Disabled      lipgloss.Style
}

// LoadTheme loads a theme from a TOML file
func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}
	return parseTheme(data)
}

func parseTheme(data []byte) (*Theme, error) {
	var theme Theme
	if err := toml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	return &theme, nil
}

// ListThemes returns the theme names found in dir
func ListThemes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory: %w", err)
	}

	var themes []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".toml" {
			themes = append(themes, strings.TrimSuffix(entry.Name(), ".toml"))
		}
	}
	return themes, nil
}

func (ts TagStyle) style() lipgloss.Style {
	s := lipgloss.NewStyle().
		Bold(ts.Bold).
		Italic(ts.Italic).
		Underline(ts.Underline)
	if ts.Foreground != "" {
		s = s.Foreground(lipgloss.Color(ts.Foreground))
	}
	return s
}

// Style returns the style for tag
func (t TagStyles) Style(tag models.Tag) TagStyle {
	switch tag {
	case models.TagNick:
		return t.Nick
	case models.TagSelf:
		return t.Self
	case models.TagSystem:
		return t.System
	case models.TagURL:
		return t.URL
	default:
		return t.Message
	}
}

// BuildStyles creates lipgloss styles from a theme
func (t *Theme) BuildStyles() *Styles {
	s := &Styles{Tags: make(map[models.Tag]lipgloss.Style, len(models.Tags))}

	for _, tag := range models.Tags {
		s.Tags[tag] = t.Tags.Style(tag).style()
	}

	s.Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.UI.Border))

	s.BorderFocused = s.Border.
		BorderForeground(lipgloss.Color(t.UI.BorderFocus))

	s.Channel = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.UI.Channel)).
		Padding(0, 1)

	s.ChannelActive = s.Channel.
		Foreground(lipgloss.Color(t.UI.ChannelActive)).
		Bold(true).
		Underline(true)

	s.Status = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.UI.Status)).
		Faint(true)

	s.Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.UI.Error)).
		Bold(true)

	s.Disabled = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.UI.Disabled))

	return s
}

// Render draws a run with its tag's style. Newlines are kept outside the
// styled text so each line's escape codes are self-contained.
func (s *Styles) Render(run models.StyledRun) string {
	style, ok := s.Tags[run.Tag]
	if !ok {
		style = s.Tags[models.TagMessage]
	}
	if run.Text == "" {
		return ""
	}

	lines := strings.Split(run.Text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// DefaultTheme returns the built-in classic palette
func DefaultTheme() *Theme {
	return &Theme{
		Meta: ThemeMeta{
			Name:    "Classic",
			Author:  "chatbox",
			Variant: "light",
		},
		Tags: TagStyles{
			Nick:    TagStyle{Foreground: "#4A90D9", Bold: true},
			Self:    TagStyle{Foreground: "#FF2020", Bold: true},
			Message: TagStyle{},
			System:  TagStyle{Foreground: "#AAAAAA", Italic: true},
			URL:     TagStyle{Foreground: "#0000FF", Underline: true},
		},
		UI: UIColors{
			Border:        "#AAAAAA",
			BorderFocus:   "#4A90D9",
			Channel:       "#555555",
			ChannelActive: "#4A90D9",
			Status:        "#777777",
			Error:         "#D0021B",
			Disabled:      "#BBBBBB",
		},
	}
}
