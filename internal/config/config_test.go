package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data/inputs/Intro to Java.pptx", cfg.Extractor.DefaultInput)
	assert.Equal(t, "text", cfg.Extractor.Format)
	assert.Equal(t, 8080, cfg.Application.Port)
	assert.Equal(t, "data/stage", cfg.Application.Storage.Stage)
	assert.Equal(t, "gemini", cfg.AI.ActiveProvider)
	assert.False(t, cfg.Database.IsConfigured())

	_, ok := cfg.AI.Active()
	assert.False(t, ok, "no key configured")
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
extractor:
  format: json
application:
  port: 9090
  storage:
    archive: /srv/archive
database:
  host: db.local
  dbname: slides
`
	p := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yaml), 0o644))

	t.Setenv("SLIDETEXT_INPUT", "decks/q3.pptx")
	t.Setenv("GEMINI_KEY", "secret")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Extractor.Format)
	assert.Equal(t, "decks/q3.pptx", cfg.Extractor.DefaultInput)
	assert.Equal(t, 9090, cfg.Application.Port)
	assert.Equal(t, "/srv/archive", cfg.Application.Storage.Archive)
	assert.True(t, cfg.Database.IsConfigured())

	provider, ok := cfg.AI.Active()
	require.True(t, ok)
	assert.Equal(t, "secret", provider.Key)
	assert.Equal(t, "gemini-1.5-flash", provider.Model)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDatabaseConfig_GetConnectStr(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", DBName: "d", Options: "-c search_path=slides"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable&options=-c%20search_path=slides", c.GetConnectStr())

	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.GetConnectStr())
}
