package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pageauth/pageauth/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "HS256", cfg.Auth.GetSigningMethod())
	assert.Equal(t, "user", cfg.Auth.GetContextKey())
	assert.Equal(t, 24, cfg.Auth.GetTokenExpiration())
	assert.Equal(t, "sqlite", cfg.DB.GetDriver())
	assert.Equal(t, "console", cfg.Email.Driver)
}

func TestLoadFileWithPartialValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"app": {"http_addr": ":9090"},
		"auth": {"signing_key": "file-secret"},
		"db": {"dsn": "file:test.db"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
	assert.Equal(t, "file-secret", cfg.Auth.GetSigningKey())
	assert.Equal(t, "file:test.db", cfg.DB.GetDSN())

	// untouched sections get defaults
	assert.Equal(t, "HS256", cfg.Auth.GetSigningMethod())
	assert.Equal(t, "cookie:user,header:Authorization", cfg.Auth.GetTokenLookup())
	assert.Equal(t, 587, cfg.Email.SMTPPort)
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("APP_HTTP_ADDR", ":7070")
	t.Setenv("SMTP_HOST", "mail.example.com")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.GetSigningKey())
	assert.Equal(t, ":7070", cfg.App.HTTPAddr)
	assert.Equal(t, "mail.example.com", cfg.Email.SMTPHost)
}

func TestLoadOrDefaultSwallowsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	cfg := config.LoadOrDefault(path)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
}
