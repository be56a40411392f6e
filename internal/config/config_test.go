package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), "")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.SupabaseEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_WINDOW", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AGENT_API_URL", "http://agent:8090/")
	t.Setenv("USE_SUPABASE", "true")
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "secret")

	cfg, err := LoadFrom(viper.New(), "")

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 4, cfg.HistoryWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "http://agent:8090", cfg.AgentAPIURL)
	assert.True(t, cfg.SupabaseEnabled())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimiser.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CACHE_TTL: 30s\nMAX_CONCURRENCY: 7\n"), 0o600))

	cfg, err := LoadFrom(viper.New(), path)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 7, cfg.MaxConcurrency)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("MAX_CONCURRENCY", "0")

	_, err := LoadFrom(viper.New(), "")

	assert.Error(t, err)
}
