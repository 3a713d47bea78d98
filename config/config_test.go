package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("FML_AUTH_MODE", "")
	t.Setenv("DB_LOG_QUERIES", "")

	cfg := load()

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.False(t, cfg.DBLogQueries)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_DBLogQueries(t *testing.T) {
	t.Setenv("DB_LOG_QUERIES", "1")

	cfg := load()
	assert.True(t, cfg.DBLogQueries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("FML_AUTH_MODE", "password")

	cfg := load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "password", cfg.AuthMode)
	assert.False(t, cfg.IsDevelopment())
}
