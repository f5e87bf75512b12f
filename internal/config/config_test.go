package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOGIN_PATH", "")
	t.Setenv("SURFACE_FORBIDDEN", "")
	t.Setenv("RESET_RATE_PER_MIN", "nope")

	c := Load()
	assert.Equal(t, "3000", c.Port)
	assert.Equal(t, "/login", c.LoginPath)
	assert.False(t, c.SurfaceForbidden)
	assert.Equal(t, 5, c.ResetRatePerMin)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SURFACE_FORBIDDEN", "true")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	c := Load()
	assert.Equal(t, "8080", c.Port)
	assert.True(t, c.SurfaceForbidden)
	assert.False(t, c.Dev())

	log := c.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}
