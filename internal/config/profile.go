package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

// Built-in profile names.
const (
	ProfileAirQuality = "air_quality"
	ProfileUrbanHeat  = "urban_heat"
)

// Profile is a named analysis configuration. Fields absent from the YAML
// keep the engine defaults.
type Profile struct {
	Name          string `yaml:"name" json:"name"`
	domain.Config `yaml:",inline"`
}

// UnmarshalYAML decodes a profile on top of the engine defaults.
func (p *Profile) UnmarshalYAML(node *yaml.Node) error {
	type plain Profile
	v := plain{Config: domain.DefaultConfig()}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = Profile(v)
	return nil
}

// Profiles maps profile names to their analysis configuration.
type Profiles map[string]domain.Config

// Names returns the profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in profiles: a weighted NO2/PM2.5/CO
// composite and a single-field land surface temperature analysis.
func DefaultProfiles() Profiles {
	aq := domain.DefaultConfig(
		domain.FieldWeight{Name: "no2", Weight: 0.6},
		domain.FieldWeight{Name: "pm25", Weight: 0.6},
		domain.FieldWeight{Name: "co", Weight: 0.3},
	)
	aq.MissingPolicy = domain.MissingExclude

	uhi := domain.DefaultConfig(domain.FieldWeight{Name: "lst_c", Weight: 1})
	uhi.Cutoffs = domain.Cutoffs{Severe: 2.0, High: 1.5, Elevated: 1.0}

	return Profiles{
		ProfileAirQuality: aq,
		ProfileUrbanHeat:  uhi,
	}
}

// LoadProfiles reads the YAML profile file at path and merges it over the
// built-in profiles. A file profile replaces a built-in of the same name.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: read file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates profile YAML, merged over the built-ins.
func ParseProfiles(data []byte) (Profiles, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("profiles: parse yaml: %w", err)
	}
	if err := validateProfiles(file.Profiles); err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}

	profiles := DefaultProfiles()
	for _, p := range file.Profiles {
		profiles[p.Name] = p.Config
	}
	return profiles, nil
}

func validateProfiles(list []Profile) error {
	if len(list) == 0 {
		return errors.New("at least one profile is required")
	}
	seen := make(map[string]bool, len(list))
	for i, p := range list {
		if p.Name == "" {
			return fmt.Errorf("profiles[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("profiles[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if err := p.Config.Validate(); err != nil {
			return fmt.Errorf("profiles[%d] %q: %w", i, p.Name, err)
		}
	}
	return nil
}

// ProfileStore holds the active profile set. Reads never block a reload.
type ProfileStore struct {
	profiles atomic.Pointer[Profiles]
	workers  int
}

// NewProfileStore returns a store serving profiles. workers is applied to
// every resolved configuration's neighbor search.
func NewProfileStore(profiles Profiles, workers int) *ProfileStore {
	s := &ProfileStore{workers: workers}
	s.Replace(profiles)
	return s
}

// Replace atomically swaps the active profile set.
func (s *ProfileStore) Replace(profiles Profiles) {
	s.profiles.Store(&profiles)
}

// Profile resolves name into a ready-to-run engine configuration.
func (s *ProfileStore) Profile(name string) (domain.Config, bool) {
	cfg, ok := (*s.profiles.Load())[name]
	if !ok {
		return domain.Config{}, false
	}
	return s.resolve(cfg), true
}

func (s *ProfileStore) resolve(cfg domain.Config) domain.Config {
	if s.workers > 0 {
		cfg.Cluster.Workers = s.workers
	}
	cfg.Fields = append([]domain.FieldWeight(nil), cfg.Fields...)
	return cfg
}

// Names returns the active profile names in sorted order.
func (s *ProfileStore) Names() []string {
	return s.profiles.Load().Names()
}

// All returns a copy of the active profile set, taken from a single snapshot
// so a concurrent Replace cannot mix two sets.
func (s *ProfileStore) All() Profiles {
	current := *s.profiles.Load()
	out := make(Profiles, len(current))
	for name, cfg := range current {
		out[name] = s.resolve(cfg)
	}
	return out
}
