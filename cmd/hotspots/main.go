// Command hotspots runs a single hotspot analysis over a sample file and
// writes the result as JSON or GeoJSON.
//
// Usage:
//
//	go run ./cmd/hotspots -in data/mock/narayanganj_lst.csv -profile urban_heat -output geojson
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/hotspot-engine/internal/adapter/geojson"
	"github.com/couchcryptid/hotspot-engine/internal/adapter/samplefile"
	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "hotspots: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hotspots", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "sample file to analyze, or - for stdin")
	format := fs.String("format", "", "input format: json, csv, or shp (default: from file extension)")
	profile := fs.String("profile", config.ProfileUrbanHeat, "analysis profile name")
	profilesPath := fs.String("profiles", "", "YAML file with additional analysis profiles")
	out := fs.String("out", "", "output file (default: stdout)")
	output := fs.String("output", "json", "output format: json or geojson")
	verbose := fs.Bool("v", false, "log analysis summary to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *in == "" {
		fs.Usage()
		return errors.New("missing required flag: -in")
	}
	if *output != "json" && *output != "geojson" {
		return fmt.Errorf("unsupported output format %q", *output)
	}

	profiles := config.DefaultProfiles()
	if *profilesPath != "" {
		var err error
		if profiles, err = config.LoadProfiles(*profilesPath); err != nil {
			return err
		}
	}
	cfg, ok := profiles[*profile]
	if !ok {
		return fmt.Errorf("%w %q (available: %v)", domain.ErrUnknownProfile, *profile, profiles.Names())
	}

	samples, err := readSamples(*in, *format, stdin)
	if err != nil {
		return err
	}

	result, err := domain.Analyze(samples, cfg)
	if err != nil {
		return err
	}

	if *verbose {
		logger := slog.New(slog.NewTextHandler(stderr, nil))
		logger.Info("analysis complete",
			"profile", *profile,
			"samples", result.SampleCount,
			"hotspots", len(result.Hotspots),
			"clusters", len(result.Clusters),
			"noise", result.NoiseCount(),
		)
	}

	data, err := encodeResult(*output, *profile, result)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(*out, data, 0o600)
}

func readSamples(path, format string, stdin io.Reader) ([]domain.Sample, error) {
	if path == "-" {
		if format == "" {
			format = string(samplefile.FormatJSON)
		}
		return samplefile.Read(stdin, samplefile.Format(format))
	}
	if format == "" || samplefile.Format(format) == samplefile.FormatSHP {
		return samplefile.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()
	return samplefile.Read(f, samplefile.Format(format))
}

func encodeResult(output, profile string, result domain.Result) ([]byte, error) {
	if output == "geojson" {
		return geojson.Encode(result)
	}
	data, err := json.MarshalIndent(domain.AnalysisResult{Profile: profile, Result: result}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
