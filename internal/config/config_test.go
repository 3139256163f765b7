package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, "db.json", cfg.DataFile)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 32, cfg.MaxUploadMB)
	assert.True(t, cfg.UsePdftotext)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORTAL_ADDR", ":9000")
	t.Setenv("PORTAL_JWTEXPIRY", "30m")
	t.Setenv("PORTAL_PDFTOTEXT", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.False(t, cfg.UsePdftotext)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_DATAFILE=/tmp/portal-test.json\n"), 0o644))
	t.Setenv("PORTAL_DATAFILE", "")
	os.Unsetenv("PORTAL_DATAFILE")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/portal-test.json", cfg.DataFile)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestFromViper_Invalid(t *testing.T) {
	v := New()
	v.Set("maxUploadMB", 0)
	_, err := FromViper(v)
	assert.Error(t, err)

	v = New()
	v.Set("jwtSecret", "")
	_, err = FromViper(v)
	assert.Error(t, err)
}
