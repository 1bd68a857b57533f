package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, time.Second, cfg.AIMinDelay)
	assert.Equal(t, 3*time.Second, cfg.AIMaxDelay)
	assert.Equal(t, 6, cfg.TournamentTarget)
	assert.Equal(t, 4, cfg.MaxPlayers)
	assert.Equal(t, 24*time.Hour, cfg.IdleRoomTTL)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("ORIGIN_ALLOWLIST", "http://a.test, http://b.test,")
	t.Setenv("AI_MAX_DELAY", "5s")
	t.Setenv("DEBUG", "true")

	cfg, err := Load([]string{"-max-players", "6", "-addr", ":7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 6, cfg.MaxPlayers)
	assert.Equal(t, 5*time.Second, cfg.AIMaxDelay)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_PLAYERS", "lots")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "MAX_PLAYERS")
}

func TestValidate(t *testing.T) {
	_, err := Load([]string{"-ai-min-delay", "4s", "-ai-max-delay", "1s"})
	assert.ErrorContains(t, err, "ai delay")

	_, err = Load([]string{"-max-players", "1"})
	assert.ErrorContains(t, err, "max players")

	_, err = Load([]string{"-tournament-target", "0"})
	assert.ErrorContains(t, err, "tournament target")
}
