package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAOS_LOG_LEVEL", "")
	t.Setenv("CHAOS_OBSERVABILITY", "")
	t.Setenv("CHAOS_OTLP_ENDPOINT", "")
	t.Setenv("CHAOS_PROFILE_DIR", "")
	t.Setenv("CHAOS_DEFAULT_SEED", "")

	cfg := Load()
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.ObservabilityEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "profiles", cfg.ProfileDir)
	assert.Equal(t, uint32(1), cfg.DefaultSeed)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHAOS_LOG_LEVEL", "debug")
	t.Setenv("CHAOS_OBSERVABILITY", "true")
	t.Setenv("CHAOS_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("CHAOS_PROFILE_DIR", "/etc/chaos/profiles")
	t.Setenv("CHAOS_DEFAULT_SEED", "42")

	cfg := Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ObservabilityEnabled)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "/etc/chaos/profiles", cfg.ProfileDir)
	assert.Equal(t, uint32(42), cfg.DefaultSeed)
}

func TestLoadIgnoresBadSeed(t *testing.T) {
	t.Setenv("CHAOS_DEFAULT_SEED", "not-a-number")
	cfg := Load()
	assert.Equal(t, uint32(1), cfg.DefaultSeed)
}

func writeProfile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, "profile_"+name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "burst", `
name: burst
description: simultaneous fire at full concurrency
seed: 42
concurrency: 10
staggered: false
timeout_ms: 5000
`)

	p, err := LoadProfile(dir, "burst")
	require.NoError(t, err)
	assert.Equal(t, "burst", p.Name)
	assert.Equal(t, uint32(42), p.Seed)
	assert.Equal(t, 10, p.Concurrency)
	assert.False(t, p.Staggered)

	cfg := p.InjectorConfig()
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.StaggerDelay)
}

func TestLoadProfileStaggered(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "soak", `
name: soak
seed: 7
concurrency: 3
staggered: true
stagger_delay_ms: 250
timeout_ms: 60000
`)

	p, err := LoadProfile(dir, "SOAK")
	require.NoError(t, err)

	cfg := p.InjectorConfig()
	assert.True(t, cfg.Staggered)
	assert.Equal(t, 250*time.Millisecond, cfg.StaggerDelay)
}

func TestLoadProfileValidation(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bad", `
name: bad
concurrency: 0
timeout_ms: 1000
`)

	_, err := LoadProfile(dir, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")

	writeProfile(t, dir, "nodelay", `
name: nodelay
concurrency: 2
staggered: true
timeout_ms: 1000
`)
	_, err = LoadProfile(dir, "nodelay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stagger_delay_ms")
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(t.TempDir(), "absent")
	require.Error(t, err)

	_, err = LoadProfile(t.TempDir(), "  ")
	require.Error(t, err)
}

func TestListProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "burst", "name: burst\nconcurrency: 1\ntimeout_ms: 1\n")
	writeProfile(t, dir, "soak", "name: soak\nconcurrency: 1\ntimeout_ms: 1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	names, err := ListProfiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"burst", "soak"}, names)
}
