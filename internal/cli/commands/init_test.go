package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/pkg/core"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
		args     []string
		wantErr  bool
	}{
		{name: "init empty directory"},
		{name: "init existing config without force", existing: true, wantErr: true},
		{name: "init existing config with force", existing: true, args: []string{"--force"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			config.ResetConfig()
			t.Cleanup(config.ResetConfig)

			path := filepath.Join(dir, "siteaudit.yaml")
			if tt.existing {
				require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))
			}

			_, err := execute(t, NewInitCommand(), tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				data, _ := os.ReadFile(path)
				assert.Equal(t, "existing", string(data))
				return
			}
			require.NoError(t, err)
			assert.FileExists(t, path)
		})
	}
}

func TestInit_IntoDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	_, err := execute(t, NewInitCommand(), "site")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "site", "siteaudit.yaml"))
}

func TestInit_WrittenConfigLoads(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	_, err := runInit(dir, false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "siteaudit.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# siteaudit configuration.")
	assert.Contains(t, string(data), "debounce: 500ms")

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultExpectations(), cfg.Expectations)
	assert.Equal(t, config.DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.BackupDir)
}
