package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 189, cfg.Convert.Iline)
	assert.Equal(t, 193, cfg.Convert.Xline)
	assert.Equal(t, 1000, cfg.Scan.MaxTraces)
	assert.Equal(t, "twt", cfg.Convert.Dimension)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name:    "yaml overlay",
			file:    "segysak.yaml",
			content: "log_level: debug\nconvert:\n  iline: 9\n  xline: 21\n",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, 9, cfg.Convert.Iline)
				assert.Equal(t, 21, cfg.Convert.Xline)
				assert.Equal(t, 181, cfg.Convert.CDPX)
			},
		},
		{
			name: "jsonc with comments",
			file: "segysak.jsonc",
			content: `{
  // scan fewer traces
  "scan": {"max_traces": 10,},
  "output": {"format": "json"}
}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 10, cfg.Scan.MaxTraces)
				assert.Equal(t, "json", cfg.Output.Format)
			},
		},
		{name: "empty", file: "empty.yaml", content: "", wantErr: true},
		{name: "malformed", file: "bad.yaml", content: "convert: [", wantErr: true},
		{name: "bad byte location", file: "loc.yaml", content: "convert:\n  iline: 400\n", wantErr: true},
		{name: "bad dimension", file: "dim.yaml", content: "convert:\n  dimension: offset\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  max_traces: 5\n"), 0644))
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scan.MaxTraces)
}

func TestLoad_NoPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
