package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultMissingIsEmpty(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfig_ExplicitMissingFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_ParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reachc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\ncache: builds.db\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "builds.db", cfg.Cache)
}

func TestLoadConfig_RejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reachc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: xml\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid format")
}

func TestLoadConfig_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reachc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- broken"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
