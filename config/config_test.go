package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "c.json", `{
		"output_dir": "reports",
		"respect_robots": true,
		"thresholds": {"pass": 90, "average": 50}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.True(t, cfg.RespectRobots)
	assert.Equal(t, 90, cfg.Thresholds.Pass)
	assert.Equal(t, 50, cfg.Thresholds.Average)
	assert.Equal(t, "site-audit.db", cfg.DBPath)
}

func TestLoadConfigYAML(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "c.yaml", "db_path: runs.db\nverbose: true\nchrome_path: /usr/bin/chromium\n"))
	require.NoError(t, err)
	assert.Equal(t, "runs.db", cfg.DBPath)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/usr/bin/chromium", cfg.ChromePath)
	assert.Equal(t, 80, cfg.Thresholds.Pass)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "snapshots.db", cfg.SnapshotPath)
	assert.Equal(t, "site-audit.log", cfg.LogPath)
	assert.Equal(t, 30, cfg.HTTPTimeout)
	assert.Equal(t, 60, cfg.PDFTimeout)
	assert.Equal(t, "--headless", cfg.ChromeFlags)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 200, cfg.RateMs)
	assert.Equal(t, 80, cfg.Thresholds.Pass)
	assert.Equal(t, 70, cfg.Thresholds.Average)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = LoadConfig(writeFile(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "parse config")
}

func TestInitializeApp(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{LogPath: filepath.Join(dir, "a.log"), DBPath: filepath.Join(dir, "a.db")}
	log, store, err := cfg.InitializeApp()
	require.NoError(t, err)
	defer log.Close()
	defer store.Close()

	runs, err := store.ListRuns("", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
