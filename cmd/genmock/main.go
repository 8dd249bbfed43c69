// Command genmock writes deterministic synthetic sample grids with planted
// anomalies, plus the analysis result the engine produces for them. The
// fixtures back the integration tests and the hotspots CLI examples.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -profile urban_heat \
//	  -samples-out data/mock/narayanganj_lst.csv \
//	  -result-out data/mock/narayanganj_lst_result.json
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/hotspot-engine/internal/adapter/samplefile"
	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/mockdata"
	"github.com/jonboulle/clockwork"
)

// analyzedAt is the fixed AnalyzedAt stamp written into result fixtures.
var analyzedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	profile := flag.String("profile", config.ProfileUrbanHeat, "built-in profile whose fields the grid carries")
	rows := flag.Int("rows", 20, "grid rows")
	cols := flag.Int("cols", 20, "grid columns")
	spacing := flag.Float64("spacing", 500, "cell spacing in meters")
	noise := flag.Float64("noise", 1, "standard deviation of background noise")
	seed := flag.Uint64("seed", 42, "random seed")
	samplesOut := flag.String("samples-out", "", "output path for samples (.json or .csv)")
	resultOut := flag.String("result-out", "", "output path for the expected analysis result (optional)")
	flag.Parse()

	if *samplesOut == "" {
		flag.Usage()
		return errors.New("missing required flag: -samples-out")
	}

	profiles := config.DefaultProfiles()
	cfg, ok := profiles[*profile]
	if !ok {
		return fmt.Errorf("%w %q", domain.ErrUnknownProfile, *profile)
	}

	names := make([]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		names[i] = f.Name
	}
	spec := mockdata.DefaultGridSpec(names...)
	spec.Rows, spec.Cols = *rows, *cols
	spec.SpacingMeters = *spacing
	spec.Noise = *noise
	spec.Seed = *seed

	samples := mockdata.Grid(spec)
	if err := writeSamples(*samplesOut, samples); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	log.Printf("wrote %d samples (%dx%d, fields %v): %s", len(samples), spec.Rows, spec.Cols, names, *samplesOut)

	// Freeze the clock so regenerated fixtures diff cleanly.
	domain.SetClock(clockwork.NewFakeClockAt(analyzedAt))
	defer domain.SetClock(nil)

	result, err := domain.Analyze(samples, cfg)
	if err != nil {
		return fmt.Errorf("analyzing grid: %w", err)
	}

	if *resultOut != "" {
		if err := writeJSON(*resultOut, domain.AnalysisResult{Profile: *profile, Result: result}); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		log.Printf("wrote result fixture: %s", *resultOut)
	}

	printStats(spec, result)
	return nil
}

func writeSamples(path string, samples []domain.Sample) error {
	var buf bytes.Buffer
	var err error
	if samplefile.FormatFromPath(path) == samplefile.FormatCSV {
		err = samplefile.WriteCSV(&buf, samples)
	} else {
		err = samplefile.WriteJSON(&buf, samples)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats reports the figures tests assert against.
func printStats(spec mockdata.GridSpec, result domain.Result) {
	var planted, plantedHit int
	selected := make(map[int]bool, len(result.Hotspots))
	for _, h := range result.Hotspots {
		selected[h.Index] = true
	}
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if !spec.Planted(r, c) {
				continue
			}
			planted++
			if selected[spec.Index(r, c)] {
				plantedHit++
			}
		}
	}

	severities := map[domain.Severity]int{}
	for _, h := range result.Hotspots {
		severities[h.Severity]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Samples: %d\n", result.SampleCount)
	fmt.Printf("Hotspots: %d (noise %d)\n", len(result.Hotspots), result.NoiseCount())
	fmt.Printf("Planted cells selected: %d/%d\n", plantedHit, planted)
	fmt.Printf("By severity: severe=%d, high=%d, elevated=%d, none=%d\n",
		severities[domain.SeveritySevere], severities[domain.SeverityHigh],
		severities[domain.SeverityElevated], severities[domain.SeverityNone])

	clusters := append([]domain.Cluster(nil), result.Clusters...)
	sort.Slice(clusters, func(i, j int) bool { return len(clusters[i].Members) > len(clusters[j].Members) })
	fmt.Printf("Clusters (%d):\n", len(clusters))
	for _, c := range clusters {
		fmt.Printf("  #%d size=%d mean_z=%.2f severity=%s centroid=(%.5f, %.5f)\n",
			c.ID, len(c.Members), c.MeanZ, c.Severity, c.Centroid.Lat(), c.Centroid.Lon())
	}
}
