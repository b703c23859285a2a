package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, WriteDefault(path, false))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[formats]")
	assert.Contains(t, string(data), "sniff_bytes = 65536")
}

func TestWriteDefaultKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[log]\njson = true\n"), 0o644))

	err := WriteDefault(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[log]\njson = true\n", string(data))
}

func TestWriteDefaultForceRotatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	for i, content := range []string{"# one\n", "# two\n", "# three\n", "# four\n"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, WriteDefault(path, true), "write %d", i)
	}

	back1, err := os.ReadFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "# four\n", string(back1))

	back3, err := os.ReadFile(path + ".back3")
	require.NoError(t, err)
	assert.Equal(t, "# two\n", string(back3), "the oldest backup is dropped")
}

func TestMarshalYAML(t *testing.T) {
	data, err := MarshalYAML(DefaultConfig())
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "formats:")
	assert.Contains(t, out, "sniff_bytes: 65536")
	assert.Contains(t, out, "subsequent: Create a new system and configuration")
}
