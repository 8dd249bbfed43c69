package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/hotspot-engine/internal/adapter/samplefile"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/mockdata"
	orbgeojson "github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, name string) string {
	t.Helper()
	samples := mockdata.Grid(mockdata.DefaultGridSpec("lst_c"))
	var buf bytes.Buffer
	if samplefile.FormatFromPath(name) == samplefile.FormatCSV {
		require.NoError(t, samplefile.WriteCSV(&buf, samples))
	} else {
		require.NoError(t, samplefile.WriteJSON(&buf, samples))
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestRun_JSON(t *testing.T) {
	path := writeGrid(t, "grid.csv")
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-in", path, "-v"}, nil, &stdout, &stderr))

	var got domain.AnalysisResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "urban_heat", got.Profile)
	assert.Equal(t, 400, got.SampleCount)
	assert.NotEmpty(t, got.Hotspots)
	assert.Contains(t, stderr.String(), "analysis complete")
}

func TestRun_GeoJSONToFile(t *testing.T) {
	path := writeGrid(t, "grid.json")
	out := filepath.Join(t.TempDir(), "out.geojson")

	require.NoError(t, run([]string{"-in", path, "-output", "geojson", "-out", out}, nil, &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := orbgeojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.NotEmpty(t, fc.Features)
}

func TestRun_Stdin(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, samplefile.WriteJSON(&in, mockdata.Grid(mockdata.DefaultGridSpec("no2", "pm25", "co"))))
	var stdout bytes.Buffer

	require.NoError(t, run([]string{"-in", "-", "-profile", "air_quality"}, &in, &stdout, &bytes.Buffer{}))
	assert.Contains(t, stdout.String(), `"profile": "air_quality"`)
}

func TestRun_Errors(t *testing.T) {
	path := writeGrid(t, "grid.json")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", nil, "-in"},
		{"unknown profile", []string{"-in", path, "-profile", "ozone"}, "unknown analysis profile"},
		{"bad output", []string{"-in", path, "-output", "kml"}, "unsupported output"},
		{"missing file", []string{"-in", filepath.Join(t.TempDir(), "nope.json")}, "open samples"},
		{"field absent", []string{"-in", path, "-profile", "air_quality"}, "no2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, nil, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
