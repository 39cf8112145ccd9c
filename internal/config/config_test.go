package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, DefaultStackSize, c.Stack.Size)
	require.True(t, c.Output.Color)
	require.Equal(t, "info", c.Output.Log)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nnp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[stack]
size = 8192

[output]
color = false
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8192, c.Stack.Size)
	require.False(t, c.Output.Color)
	require.Equal(t, "info", c.Output.Log, "unset fields keep their default")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
