package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Startup failures must return through run so deferred cleanup executes,
// rather than exiting from the middle of the wiring.
func TestRunReturnsDatabaseError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("database:\n  type: oracle\n"), 0644))

	err := run(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestRunReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(":\tnot yaml ["), 0644))

	assert.Error(t, run(configPath))
}
