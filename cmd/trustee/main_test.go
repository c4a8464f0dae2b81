package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cclaudio/trustee/internal/plugin"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, workDir string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := "observability:\n  log_level: error\nrepository:\n  work_dir: " + workDir + "\n  enabled_plugins: [localfs]\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestPluginsCommand(t *testing.T) {
	out, err := run(t, "plugins")
	require.NoError(t, err)
	assert.Equal(t, "localfs\nvault\n", out)
}

func TestGetCommand(t *testing.T) {
	workDir := t.TempDir()
	cfg := writeConfig(t, workDir)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "localfs", "default"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "localfs", "default", "key"), []byte("payload"), 0o600))

	out, err := run(t, "--config", cfg, "get", "localfs", "default/key")
	require.NoError(t, err)
	assert.Equal(t, "payload", out)

	_, err = run(t, "--config", cfg, "get", "missing", "default/key")
	require.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

func TestGetCommandBadConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "get", "localfs", "x")
	require.Error(t, err)
}
