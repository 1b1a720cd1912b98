package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.CatalogPath)
	assert.NotEmpty(t, cfg.MediaFolder)
	assert.Equal(t, 30*time.Second, cfg.MediaTimeout)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("CATALOG_PATH", "/custom/catalog.json")
	t.Setenv("MEDIA_CLOUD", "demo")
	t.Setenv("MEDIA_TIMEOUT", "5s")
	t.Setenv("CAPTION_BACKEND", "claude")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/catalog.json", cfg.CatalogPath)
	assert.Equal(t, "demo", cfg.MediaCloud)
	assert.Equal(t, 5*time.Second, cfg.MediaTimeout)
	assert.Equal(t, "claude", cfg.CaptionBackend)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("MEDIA_TIMEOUT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.MediaTimeout)
}
