package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "nutribot", cfg.App.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Ingestion.MaxPerQuery)
	assert.Equal(t, 60*time.Second, cfg.Ingestion.Timeout)
	assert.Equal(t, 20, cfg.Matching.MediumMinutes)
	assert.Equal(t, 45, cfg.Matching.LongMinutes)
	assert.Equal(t, 40, cfg.Matching.DefaultMaxTime)
	assert.Equal(t, 94, cfg.Sensor.LowOxygenBelow)
	assert.Equal(t, 20, cfg.Sensor.ColdBelow)
	assert.Equal(t, cfg.Sensor.ColdBelow, cfg.Sensor.WarmBelow, "warm band is opt-in")
	assert.Equal(t, "memory", cfg.Sensor.Backend)
	assert.Equal(t, uint32(5), cfg.FDC.BreakerFailures)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FDC_API_KEY", "abcd1234efgh5678")
	t.Setenv("SENSOR_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("APP_INGESTION_WORKERS", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "abcd1234efgh5678", cfg.FDC.APIKey)
	assert.Equal(t, "redis", cfg.Sensor.Backend)
	assert.Equal(t, "redis:6379", cfg.Sensor.Redis.Addr)
	assert.Equal(t, 8, cfg.Ingestion.Workers)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown sensor backend", map[string]string{"SENSOR_BACKEND": "etcd"}},
		{"openrouter without key", map[string]string{"OPENROUTER_ENABLED": "true"}},
		{"non monotone thresholds", map[string]string{"APP_MATCHING_MEDIUM_MINUTES": "50"}},
		{"warm band below cold", map[string]string{"APP_SENSOR_WARM_BELOW": "15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcd...5678", maskAPIKey("abcd1234efgh5678"))
}
