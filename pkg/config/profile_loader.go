package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/isl-lang/chaoscore/pkg/inject"
)

// ChaosProfile is a named injector preset. Profiles let the code driving
// the core reference a batch shape ("smoke", "soak", "burst") instead of
// hand-tuning numbers per call site.
type ChaosProfile struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`
	Seed           uint32 `yaml:"seed" json:"seed"`
	Concurrency    int    `yaml:"concurrency" json:"concurrency"`
	Staggered      bool   `yaml:"staggered" json:"staggered"`
	StaggerDelayMs int    `yaml:"stagger_delay_ms,omitempty" json:"stagger_delay_ms,omitempty"`
	TimeoutMs      int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// InjectorConfig translates the profile into an injection batch shape.
func (p *ChaosProfile) InjectorConfig() inject.Config {
	return inject.Config{
		Concurrency:  p.Concurrency,
		Staggered:    p.Staggered,
		StaggerDelay: time.Duration(p.StaggerDelayMs) * time.Millisecond,
		Timeout:      time.Duration(p.TimeoutMs) * time.Millisecond,
	}
}

// LoadProfile loads profile_<name>.yaml from the profiles directory.
func LoadProfile(dir, name string) (*ChaosProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("config: profile name is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("profile_%s.yaml", name))
	data, err := os.ReadFile(path) // #nosec G304 -- path constrained to profiles dir
	if err != nil {
		return nil, fmt.Errorf("config: read profile %s: %w", name, err)
	}

	var profile ChaosProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", name, err)
	}
	if err := validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("config: invalid profile %s: %w", name, err)
	}
	return &profile, nil
}

// ListProfiles returns the names of all profiles in the directory.
func ListProfiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read profile dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		base := e.Name()
		if strings.HasPrefix(base, "profile_") && strings.HasSuffix(base, ".yaml") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml"))
		}
	}
	return names, nil
}

func validateProfile(p *ChaosProfile) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", p.Concurrency)
	}
	if p.Staggered && p.StaggerDelayMs <= 0 {
		return fmt.Errorf("staggered profile requires stagger_delay_ms")
	}
	return nil
}
