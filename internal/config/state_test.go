package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_LoadMissing(t *testing.T) {
	req := require.New(t)
	m, err := NewManager(filepath.Join(t.TempDir(), "nested", ".chatbox"))
	req.NoError(err)

	state, err := m.Load()
	req.NoError(err)
	req.Equal(&State{Version: stateVersion}, state)
}

func TestManager_SaveAndLoad(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	m, err := NewManager(dir)
	req.NoError(err)

	saved := &State{
		Nickname: "alice",
		Channels: []string{"#go", "#rust"},
		Active:   "#rust",
		Theme:    "dracula",
	}
	req.NoError(m.Save(saved))

	loaded, err := m.Load()
	req.NoError(err)
	req.Equal(saved, loaded)
	req.Equal(stateVersion, loaded.Version)

	_, err = os.Stat(filepath.Join(dir, "state.json.tmp"))
	req.True(os.IsNotExist(err))
}

func TestManager_Update(t *testing.T) {
	req := require.New(t)
	m, err := NewManager(t.TempDir())
	req.NoError(err)

	req.NoError(m.Update(func(s *State) { s.Nickname = "bob" }))
	req.NoError(m.Update(func(s *State) { s.Channels = append(s.Channels, "#go") }))

	state, err := m.Load()
	req.NoError(err)
	req.Equal("bob", state.Nickname)
	req.Equal([]string{"#go"}, state.Channels)
}

func TestManager_Corrupt(t *testing.T) {
	req := require.New(t)
	m, err := NewManager(t.TempDir())
	req.NoError(err)
	req.NoError(os.WriteFile(m.Path(), []byte("{"), 0644))

	_, err = m.Load()
	req.ErrorContains(err, "failed to parse state")
	req.Error(m.Update(func(*State) {}))
}
