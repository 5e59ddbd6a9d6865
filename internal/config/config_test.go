package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "chatbox.toml")
	writeFile(t, path, `
nickname = "alice"
channels = ["#go", "#rust"]

[relay]
address = "ws://relay.example:9000"

[highlight]
keywords = ["gopher", "release"]
`)

	cfg, used, err := Load(path)
	req.NoError(err)
	req.Equal(path, used)
	req.Equal("alice", cfg.Nickname)
	req.Equal([]string{"#go", "#rust"}, cfg.Channels)
	req.Equal("ws://relay.example:9000", cfg.Relay.Address)
	req.Equal([]string{"gopher", "release"}, cfg.Highlight.Keywords)

	// Untouched fields keep their defaults
	req.Equal("classic", cfg.Theme)
	req.Equal(5, cfg.Relay.ReconnectAttempts)
}

func TestLoad_SearchesDefaultPaths(t *testing.T) {
	req := require.New(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, used, err := Load("")
	req.NoError(err)
	req.Empty(used)
	req.Equal(DefaultConfig(), cfg)

	homeConfig := filepath.Join(home, ".config", "chatbox", "chatbox.toml")
	writeFile(t, homeConfig, `theme = "dracula"`)

	cfg, used, err = Load("")
	req.NoError(err)
	req.Equal(homeConfig, used)
	req.Equal("dracula", cfg.Theme)
}

func TestLoad_Errors(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "missing.toml"))
	req.ErrorContains(err, "failed to read config file")

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "nickname = \n")
	_, _, err = Load(bad)
	req.ErrorContains(err, "failed to parse config file "+bad)
}

func TestFind(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.toml")
	second := filepath.Join(dir, "b.toml")
	writeFile(t, second, "")

	req.Equal(second, Find([]string{first, dir, second}))
	req.Empty(Find([]string{first}))
	req.Empty(Find(nil))
}

func TestLoadTOML_RelaySection(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "relay.toml")
	writeFile(t, path, "port = 9001\ndebug = true\n")

	var cfg struct {
		Host  string `toml:"host"`
		Port  int    `toml:"port"`
		Debug bool   `toml:"debug"`
	}
	cfg.Host = "127.0.0.1"
	req.NoError(LoadTOML(path, &cfg))
	req.Equal("127.0.0.1", cfg.Host)
	req.Equal(9001, cfg.Port)
	req.True(cfg.Debug)
}
