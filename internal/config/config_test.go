package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://dev.azure.com", cfg.Azure.BaseURL)
	assert.Equal(t, "7.0", cfg.Azure.APIVersion)
	assert.Equal(t, 10*time.Second, cfg.Azure.Timeout)
	assert.Equal(t, 10.0, cfg.Azure.RateLimit)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "reports", cfg.Output.Directory)
	assert.Equal(t, []string{"text"}, cfg.Output.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekreport.yaml")
	content := `
azure:
  organization: from-file
  token: file-token
  timeout: 30s
server:
  addr: ":8080"
output:
  directory: out
  format: [json, html]
author: Jane
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("WEEKREPORT_AZURE_TOKEN", "env-token")
	t.Setenv("WEEKREPORT_OUTPUT_FORMAT", "text, xlsx")
	t.Setenv("WEEKREPORT_SERVER_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Azure.Organization)
	assert.Equal(t, "env-token", cfg.Azure.Token)
	assert.Equal(t, 30*time.Second, cfg.Azure.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, []string{"text", "xlsx"}, cfg.Output.Format)
	assert.Equal(t, "Jane", cfg.Author)
	assert.NoError(t, cfg.ValidateSource())
}

func TestLoad_ZeroRateLimitDisablesPacing(t *testing.T) {
	t.Setenv("WEEKREPORT_AZURE_RATE_LIMIT", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.Azure.RateLimit)
}

func TestLoad_ZeroRateLimitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("azure:\n  rate_limit: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Azure.RateLimit)
}

func TestLoad_RejectsUnknownFormat(t *testing.T) {
	t.Setenv("WEEKREPORT_OUTPUT_FORMAT", "pdf")

	_, err := Load("")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("azure: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateSource(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.ValidateSource(), "organization")

	cfg.Azure.Organization = "org1"
	assert.ErrorContains(t, cfg.ValidateSource(), "token")

	cfg.Azure.Token = "abc"
	assert.NoError(t, cfg.ValidateSource())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
