package themes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concord-chat/chatbox/internal/models"
)

func TestGetTheme_Embedded(t *testing.T) {
	tests := []struct {
		name     string
		theme    string
		expected string
	}{
		{name: "Default", theme: "", expected: "Classic"},
		{name: "Classic", theme: "classic", expected: "Classic"},
		{name: "Dracula", theme: "dracula", expected: "Dracula"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			theme, err := GetTheme("", tt.theme)
			req.NoError(err)
			req.Equal(tt.expected, theme.Meta.Name)
		})
	}
}

func TestEmbeddedClassicMatchesDefault(t *testing.T) {
	req := require.New(t)
	theme, err := GetTheme("", "classic")
	req.NoError(err)
	req.Equal(DefaultTheme(), theme)
}

func TestGetTheme_Unknown(t *testing.T) {
	req := require.New(t)
	_, err := GetTheme(t.TempDir(), "solarized")
	req.ErrorContains(err, `theme "solarized" not found`)
}

func TestGetTheme_UserOverride(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	custom := `
[meta]
name = "My Classic"

[tags.self]
foreground = "#00FF00"
`
	req.NoError(os.WriteFile(filepath.Join(dir, "classic.toml"), []byte(custom), 0644))
	req.NoError(os.WriteFile(filepath.Join(dir, "dracula.toml"), []byte("not = [toml"), 0644))

	theme, err := GetTheme(dir, "classic")
	req.NoError(err)
	req.Equal("My Classic", theme.Meta.Name)
	req.Equal("#00FF00", theme.Tags.Self.Foreground)

	// A broken override falls back to the bundled theme
	theme, err = GetTheme(dir, "dracula")
	req.NoError(err)
	req.Equal("Dracula", theme.Meta.Name)
}

func TestListAvailableThemes(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "mine.toml"), []byte("[meta]\nname = \"Mine\"\n"), 0644))
	req.NoError(os.WriteFile(filepath.Join(dir, "classic.toml"), []byte(""), 0644))
	req.NoError(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0644))

	req.Equal([]string{"classic", "dracula", "mine"}, ListAvailableThemes(dir))
	req.Equal([]string{"classic", "dracula"}, ListAvailableThemes(""))
}

func TestBuildStyles(t *testing.T) {
	req := require.New(t)
	styles := DefaultTheme().BuildStyles()

	for _, tag := range models.Tags {
		_, ok := styles.Tags[tag]
		req.True(ok, "missing style for %s", tag)
	}
	req.True(styles.Tags[models.TagURL].GetUnderline())
	req.True(styles.Tags[models.TagSystem].GetItalic())
	req.True(styles.Tags[models.TagSelf].GetBold())
}

func TestRender_KeepsTextAndNewlines(t *testing.T) {
	req := require.New(t)
	styles := DefaultTheme().BuildStyles()

	out := styles.Render(models.NewRun("first\nsecond\n", models.TagSystem))
	req.Equal(2, strings.Count(out, "\n"))
	req.True(strings.HasSuffix(out, "\n"))
	req.Contains(out, "first")
	req.Contains(out, "second")

	req.Equal("", styles.Render(models.NewRun("", models.TagNick)))
	req.Equal("\n", styles.Render(models.NewRun("\n", models.TagMessage)))
}
