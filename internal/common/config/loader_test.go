// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: previews\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "previews", cfg.App.Name)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "preview_data.json", cfg.Storage.SnapshotPath)
	assert.Equal(t, "https://api.openai.com", cfg.APIs.OpenAI.BaseURL)
	assert.Equal(t, 30000, cfg.APIs.OpenAI.MaxOutputTokens)
	assert.Equal(t, "https://f1api.dev/api", cfg.APIs.F1API.BaseURL)
	assert.Equal(t, "https://api.openf1.org/v1", cfg.APIs.OpenF1.BaseURL)
	assert.Equal(t, 20, cfg.Generation.MaxConcurrency)
	assert.Equal(t, 10*time.Minute, GetDuration(cfg.APIs.OpenAI.Timeout))
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("F1P_STORAGE_DRIVER", "memory")
	t.Setenv("F1P_APIS_OPENAI_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CIRCUIT_NAME", "Monza")

	path := writeConfig(t, `
storage:
  driver: sqlite
generation:
  circuit: ${CIRCUIT_NAME}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "gpt-4.1", cfg.APIs.OpenAI.Model)
	assert.Equal(t, "sk-env", cfg.APIs.OpenAI.APIKey)
	assert.Equal(t, "Monza", cfg.Generation.Circuit)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown driver",
			body:    "storage:\n  driver: mongo\n",
			wantErr: "storage.driver",
		},
		{
			name:    "postgres without host",
			body:    "storage:\n  driver: postgres\n",
			wantErr: "storage.postgres.host",
		},
		{
			name:    "redis without address",
			body:    "storage:\n  driver: redis\n",
			wantErr: "storage.redis.address",
		},
		{
			name:    "temperature out of range",
			body:    "apis:\n  openai:\n    temperature: 3.5\n",
			wantErr: "temperature",
		},
		{
			name:    "unknown results source",
			body:    "generation:\n  results_source: ergast\n",
			wantErr: "results_source",
		},
		{
			name:    "sns without topic",
			body:    "notifications:\n  sns:\n    enabled: true\n",
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDIS_ADDR", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
