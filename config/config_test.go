package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at an empty temp dir so
// no stray config.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, "*", cfg.Server.FrontendURL)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, DefaultLLMModel, cfg.LLM.Model)
	assert.True(t, cfg.LLM.Stream)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.LLM.Configured())
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 1000, cfg.Database.MaxRows)
	assert.Equal(t, 22, cfg.Database.SSH.Port)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SchemaTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8081")
	t.Setenv("API_KEY", "sk-test-1234")
	t.Setenv("LLM_MODEL", "openai/gpt-4o-mini")
	t.Setenv("LLM_STREAM", "false")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("DB_MAX_ROWS", "50")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.True(t, cfg.LLM.Configured())
	assert.Equal(t, "****1234", cfg.LLM.MaskedKey())
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.False(t, cfg.LLM.Stream)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Database.MaxRows)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "chatdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nlog_level: debug\n"), 0600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	// Environment beats the file.
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidSSH(t *testing.T) {
	isolate(t)
	t.Setenv("SSH_ENABLED", "true")
	t.Setenv("SSH_HOST", "bastion")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSH_USER")
	assert.Contains(t, err.Error(), "SSH_KEY_PATH")
}

func TestDatabase_ResolveURL(t *testing.T) {
	d := Database{URL: "postgres://default"}

	u, err := d.ResolveURL("  postgres://other ")
	require.NoError(t, err)
	assert.Equal(t, "postgres://other", u)

	u, err = d.ResolveURL("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://default", u)

	_, err = Database{}.ResolveURL("")
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "postgres://u:xxxxx@db:5432/app", RedactURL("postgres://u:secret@db:5432/app"))
	assert.Equal(t, "<dsn>", RedactURL("host=db user=u password=secret"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****wxyz", MaskSecret("sk-abcdwxyz"))
}
