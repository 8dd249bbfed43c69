// Command validate checks analysis profiles and mock fixtures for
// consistency: the profile file parses and validates, every profile field has
// enough finite samples, a stored result fixture matches a fresh analysis, and
// the result obeys the engine's structural guarantees.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -profiles config/profiles.yaml \
//	  -profile urban_heat \
//	  -samples data/mock/narayanganj_lst.csv \
//	  -result data/mock/narayanganj_lst_result.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/couchcryptid/hotspot-engine/internal/adapter/samplefile"
	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	profilesPath := flag.String("profiles", "", "YAML profile file (default: built-in profiles)")
	profile := flag.String("profile", config.ProfileUrbanHeat, "profile the fixtures were generated with")
	samplesPath := flag.String("samples", "", "sample fixture (.json or .csv)")
	resultPath := flag.String("result", "", "expected analysis result fixture (optional)")
	flag.Parse()

	if *samplesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*profilesPath, *profile, *samplesPath, *resultPath); code != 0 {
		os.Exit(code)
	}
}

func run(profilesPath, profile, samplesPath, resultPath string) int {
	fmt.Println("=== Hotspot Fixture Validation ===")
	fmt.Println()

	profiles, profilePhase := validateProfiles(profilesPath)

	samples, err := samplefile.ReadFile(samplesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load samples: %v\n", err)
		return 1
	}

	phases := []*phase{profilePhase, validateSampleCoverage(profiles, samples)}

	cfg, ok := profiles[profile]
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %v %q\n", domain.ErrUnknownProfile, profile)
		return 1
	}

	if resultPath != "" {
		expected, err := loadResult(resultPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load result: %v\n", err)
			return 1
		}
		phases = append(phases,
			validateReproduction(samples, cfg, expected),
			validateStructure(expected.Result, cfg),
		)
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Profiles: %d, samples: %d\n", len(profiles), len(samples))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadResult(path string) (domain.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	var r domain.AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

// ── Phase 1: profiles ──

func validateProfiles(path string) (config.Profiles, *phase) {
	p := &phase{name: "Phase 1: Profile File"}
	if path == "" {
		return config.DefaultProfiles(), p
	}
	profiles, err := config.LoadProfiles(path)
	if err != nil {
		p.errorf("%v", err)
		return config.DefaultProfiles(), p
	}
	return profiles, p
}

// ── Phase 2: sample coverage ──

// validateSampleCoverage reports, per profile, fields the samples carry but
// cannot standardize. A profile whose fields are entirely absent is skipped;
// the fixture simply was not built for it.
func validateSampleCoverage(profiles config.Profiles, samples []domain.Sample) *phase {
	p := &phase{name: "Phase 2: Sample Coverage"}
	if len(samples) == 0 {
		p.errorf("sample file is empty")
		return p
	}

	for _, name := range profiles.Names() {
		cfg := profiles[name]
		present, finite := fieldCounts(samples, cfg.Fields)
		if slices.Max(present) == 0 {
			continue
		}
		for i, f := range cfg.Fields {
			switch {
			case present[i] == 0:
				p.errorf("profile %s: field %q absent from every sample", name, f.Name)
			case finite[i] < 2:
				p.errorf("profile %s: field %q has %d finite values, need at least 2", name, f.Name, finite[i])
			}
		}
	}
	return p
}

func fieldCounts(samples []domain.Sample, fields []domain.FieldWeight) (present, finite []int) {
	present = make([]int, len(fields))
	finite = make([]int, len(fields))
	for _, s := range samples {
		for i, f := range fields {
			if _, ok := s.Fields[f.Name]; ok {
				present[i]++
			}
			if _, ok := s.Value(f.Name); ok {
				finite[i]++
			}
		}
	}
	return present, finite
}

// ── Phase 3: reproduction ──

type hotspotSummary struct {
	Index     int
	ClusterID int
	Severity  domain.Severity
	Drivers   []string
}

func summarize(r domain.Result) []hotspotSummary {
	out := make([]hotspotSummary, len(r.Hotspots))
	for i, h := range r.Hotspots {
		out[i] = hotspotSummary{Index: h.Index, ClusterID: h.ClusterID, Severity: h.Severity, Drivers: h.Drivers}
	}
	return out
}

func validateReproduction(samples []domain.Sample, cfg domain.Config, expected domain.AnalysisResult) *phase {
	p := &phase{name: "Phase 3: Result Reproduction"}

	domain.SetClock(clockwork.NewFakeClockAt(expected.AnalyzedAt))
	defer domain.SetClock(nil)

	got, err := domain.Analyze(samples, cfg)
	if err != nil {
		p.errorf("analyze: %v", err)
		return p
	}

	if got.SampleCount != expected.SampleCount {
		p.errorf("sample_count: fixture=%d fresh=%d", expected.SampleCount, got.SampleCount)
	}
	if diff := cmp.Diff(summarize(expected.Result), summarize(got)); diff != "" {
		p.errorf("hotspots differ (-fixture +fresh):\n%s", diff)
	}
	if len(got.Clusters) != len(expected.Clusters) {
		p.errorf("clusters: fixture=%d fresh=%d", len(expected.Clusters), len(got.Clusters))
	}
	return p
}

// ── Phase 4: structural guarantees ──

func validateStructure(r domain.Result, cfg domain.Config) *phase {
	p := &phase{name: "Phase 4: Result Structure"}

	prev := -1
	maxCluster := domain.Noise
	for i, h := range r.Hotspots {
		if h.Index <= prev {
			p.errorf("hotspot[%d]: index %d not ascending", i, h.Index)
		}
		prev = h.Index
		if h.Index >= r.SampleCount {
			p.errorf("hotspot[%d]: index %d beyond sample_count %d", i, h.Index, r.SampleCount)
		}
		if want := cfg.Cutoffs.Classify(h.CompositeZ); h.Severity != want {
			p.errorf("hotspot[%d]: severity %s, composite_z %.3f classifies as %s", i, h.Severity, h.CompositeZ, want)
		}
		if h.Visible != (h.Severity != domain.SeverityNone) {
			p.errorf("hotspot[%d]: visible=%t with severity %s", i, h.Visible, h.Severity)
		}
		if h.ClusterID < domain.Noise {
			p.errorf("hotspot[%d]: invalid cluster id %d", i, h.ClusterID)
		}
		maxCluster = max(maxCluster, h.ClusterID)
	}

	if len(r.Clusters) != maxCluster+1 {
		p.errorf("cluster ids not contiguous: max id %d, %d summaries", maxCluster, len(r.Clusters))
	}
	for id, c := range r.Clusters {
		if c.ID != id {
			p.errorf("cluster[%d]: id %d", id, c.ID)
		}
		for _, m := range c.Members {
			if m >= len(r.Hotspots) || r.Hotspots[m].ClusterID != c.ID {
				p.errorf("cluster %d: member %d does not carry its id", c.ID, m)
			}
		}
	}
	return p
}
