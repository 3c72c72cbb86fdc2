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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range envOverrides {
		t.Setenv(key, "")
	}
	t.Setenv("RATES_API_TIMEOUT", "")
	t.Setenv("DISABLE_METRICS", "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
token: "123:abc"
rates_api_url: "https://api.exchangeratesapi.io/v1/latest"
rates_api_key: "key"
rates_api_timeout: 3
connection_string_db: "postgres://bot@localhost/bot"
log_file: "user_log.txt"
`)

	s, err := Load(path)
	require.NoError(t, err)

	cfg := s.GetConfig()
	assert.Equal(t, "123:abc", s.Token())
	assert.Equal(t, "https://api.exchangeratesapi.io/v1/latest", cfg.RatesAPIURL)
	assert.Equal(t, "key", cfg.RatesAPIKey)
	assert.Equal(t, 3*time.Second, s.RatesTimeout())
	assert.Equal(t, "postgres://bot@localhost/bot", cfg.ConnectionStringDB)
	assert.Equal(t, "user_log.txt", cfg.LogFile)

	// Значения по умолчанию.
	assert.Equal(t, "api.telegram.org", cfg.FileHost)
	assert.Equal(t, ":8080", cfg.MetricsAddr)
	assert.Equal(t, "expense-bot", cfg.ServiceName)
	assert.Equal(t, 60, cfg.UpdatesTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
token: "from-file"
rates_api_url: "https://file.example/latest"
`)
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("RATES_API_KEY", "env-key")
	t.Setenv("RATES_API_TIMEOUT", "7")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Token())
	assert.Equal(t, "env-key", s.GetConfig().RatesAPIKey)
	assert.Equal(t, "https://file.example/latest", s.GetConfig().RatesAPIURL)
	assert.Equal(t, 7*time.Second, s.RatesTimeout())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("RATES_API_URL", "https://rates.example/latest")

	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token())
}

func TestLoadDisableMetrics(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
token: "t"
rates_api_url: "u"
disable_metrics: true
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, s.GetConfig().MetricsAddr)
}

func TestLoadDisableMetricsFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
token: "t"
rates_api_url: "u"
metrics_addr: ":9090"
`)
	t.Setenv("DISABLE_METRICS", "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.GetConfig().DisableMetrics)
	assert.Empty(t, s.GetConfig().MetricsAddr)

	t.Setenv("DISABLE_METRICS", "false")
	s, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.GetConfig().MetricsAddr)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, `rates_api_url: "u"`))
	assert.ErrorContains(t, err, "token")

	_, err = Load(writeConfig(t, `token: "t"`))
	assert.ErrorContains(t, err, "rates_api_url")

	_, err = Load(writeConfig(t, "token: [unclosed"))
	assert.Error(t, err)

	t.Setenv("RATES_API_TIMEOUT", "soon")
	_, err = Load(writeConfig(t, "token: t\nrates_api_url: u\n"))
	assert.ErrorContains(t, err, "RATES_API_TIMEOUT")

	t.Setenv("RATES_API_TIMEOUT", "")
	t.Setenv("DISABLE_METRICS", "maybe")
	_, err = Load(writeConfig(t, "token: t\nrates_api_url: u\n"))
	assert.ErrorContains(t, err, "DISABLE_METRICS")
}
