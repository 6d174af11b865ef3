package config

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":8888", cfg.Addr)
	assert.True(t, cfg.Advertise)
	assert.Empty(t, cfg.Link)
	assert.Equal(t, 8888, cfg.Port())
}

func TestLoadFlagsAndLink(t *testing.T) {
	cfg, err := Load([]string{
		"-addr", "127.0.0.1:9000", "-advertise=false", "-name", "Ann",
		"-log-level", "debug", "-discover-timeout", "1s",
		"localboard://10.0.0.2:9000",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 9000, cfg.Port())
	assert.False(t, cfg.Advertise)
	assert.Equal(t, "Ann", cfg.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.DiscoverTimeout)
	assert.Equal(t, "localboard://10.0.0.2:9000", cfg.Link)
}

func TestLoadRejectsBadInput(t *testing.T) {
	for name, args := range map[string][]string{
		"foreign link":  {"http://example.com"},
		"two links":     {"localboard://a:1", "localboard://b:2"},
		"bad format":    {"-log-format", "xml"},
		"bad level":     {"-log-level", "loud"},
		"unknown flag":  {"-nope"},
		"empty address": {"-addr", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	t.Setenv("LOCALBOARD_ADDR", ":7000")
	t.Setenv("LOCALBOARD_HEADLESS", "true")
	t.Setenv("LOCALBOARD_LOG_FORMAT", "json")

	cfg, err := Load([]string{"-addr", ":7001"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Addr, "flags win over the environment")
	assert.True(t, cfg.Headless)
	assert.Equal(t, "json", cfg.LogFormat)

	t.Setenv("LOCALBOARD_ADVERTISE", "maybe")
	_, err = Load(nil, io.Discard)
	assert.ErrorContains(t, err, "LOCALBOARD_ADVERTISE")
}

func TestPortFallback(t *testing.T) {
	assert.Equal(t, DefaultPort, (&Config{Addr: "localhost"}).Port())
	assert.Equal(t, DefaultPort, (&Config{Addr: ":http"}).Port())
}
