// Package config loads runtime configuration for the chaos verification
// core from environment variables and YAML chaos profiles.
package config

import (
	"os"
	"strconv"
)

// Config holds core runtime settings.
type Config struct {
	LogLevel             string
	ObservabilityEnabled bool
	OTLPEndpoint         string
	ProfileDir           string
	DefaultSeed          uint32
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() *Config {
	logLevel := os.Getenv("CHAOS_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	endpoint := os.Getenv("CHAOS_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	profileDir := os.Getenv("CHAOS_PROFILE_DIR")
	if profileDir == "" {
		profileDir = "profiles"
	}

	var seed uint32 = 1
	if raw := os.Getenv("CHAOS_DEFAULT_SEED"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			seed = uint32(v)
		}
	}

	return &Config{
		LogLevel:             logLevel,
		ObservabilityEnabled: os.Getenv("CHAOS_OBSERVABILITY") == "true",
		OTLPEndpoint:         endpoint,
		ProfileDir:           profileDir,
		DefaultSeed:          seed,
	}
}
