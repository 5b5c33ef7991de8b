package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Threshold)
	assert.False(t, cfg.BatchMode)
	assert.Contains(t, cfg.LedgerPath, "processed_meetings.json")
	assert.Contains(t, cfg.RulesPath, "rules.yaml")
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clickup_token: pk_test
team_id: "9001"
default_list_id: "901100"
anthropic_model: claude-sonnet-4-5
threshold: 0.9
batch_mode: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pk_test", cfg.ClickUpToken)
	assert.Equal(t, "9001", cfg.TeamID)
	assert.Equal(t, "901100", cfg.DefaultListID)
	assert.Equal(t, "claude-sonnet-4-5", cfg.AnthropicModel)
	assert.Equal(t, 0.9, cfg.Threshold)
	assert.True(t, cfg.BatchMode)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GUT_THRESHOLD", "0.8")
	t.Setenv("GUT_CLICKUP_TOKEN", "pk_env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 0.95\nclickup_token: pk_file\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Threshold)
	assert.Equal(t, "pk_env", cfg.ClickUpToken)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: [not: {valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{ClickUpToken: "pk", DefaultListID: "100", Threshold: 0.85}, false},
		{"missing token", Config{DefaultListID: "100", Threshold: 0.85}, true},
		{"missing list", Config{ClickUpToken: "pk", Threshold: 0.85}, true},
		{"threshold too high", Config{ClickUpToken: "pk", DefaultListID: "100", Threshold: 1.5}, true},
		{"threshold negative", Config{ClickUpToken: "pk", DefaultListID: "100", Threshold: -0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
