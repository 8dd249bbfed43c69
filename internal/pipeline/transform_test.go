package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/mockdata"
	"github.com/couchcryptid/hotspot-engine/internal/observability"
	"github.com/couchcryptid/hotspot-engine/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strictProfile = "strict_heat"

type stubGeocoder struct {
	calls int
}

func (g *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	g.calls++
	return domain.GeocodingResult{PlaceName: "Fatullah"}, nil
}

// testStore serves the built-in profiles plus a z-only variant of urban_heat
// so random grid noise cannot reach the percentile threshold.
func testStore() *config.ProfileStore {
	profiles := config.DefaultProfiles()
	strict := profiles[config.ProfileUrbanHeat]
	strict.PercentileThreshold = 100
	profiles[strictProfile] = strict
	return config.NewProfileStore(profiles, 2)
}

func marshalRequest(t *testing.T, req domain.AnalysisRequest) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(req.ID), Value: data, Topic: "hotspot-requests"}
}

func TestHotspotTransformer_SyntheticGrid(t *testing.T) {
	spec := mockdata.DefaultGridSpec("lst_c")
	metrics := observability.NewMetricsForTesting()
	geo := &stubGeocoder{}
	tfm := pipeline.NewTransformer(testStore(), geo, discardLogger(), metrics)

	raw := marshalRequest(t, domain.AnalysisRequest{ID: "grid-1", Profile: strictProfile, Samples: mockdata.Grid(spec)})
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "grid-1", out.RequestID)
	assert.Equal(t, strictProfile, out.Profile)
	assert.Equal(t, 400, out.SampleCount)

	byIndex := make(map[int]domain.Hotspot, len(out.Hotspots))
	for _, h := range out.Hotspots {
		byIndex[h.Index] = h
	}
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if !spec.Planted(r, c) {
				continue
			}
			h, ok := byIndex[spec.Index(r, c)]
			require.True(t, ok, "planted cell (%d,%d) not selected", r, c)
			assert.NotEqual(t, domain.Noise, h.ClusterID, "planted cell (%d,%d) not clustered", r, c)
			assert.Equal(t, []string{"lst_c"}, h.Drivers)
		}
	}

	first := byIndex[spec.Index(5, 5)]
	second := byIndex[spec.Index(14, 12)]
	assert.NotEqual(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, domain.SeveritySevere, first.Severity)

	require.GreaterOrEqual(t, len(out.Clusters), 2)
	assert.Equal(t, len(out.Clusters), geo.calls)
	for _, c := range out.Clusters {
		assert.Equal(t, "Fatullah", c.Label)
		assert.NotEqual(t, domain.SeverityNone, c.Severity)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.AnalysisDuration, "hotspot_analysis_duration_seconds"))
}

func TestHotspotTransformer_Errors(t *testing.T) {
	tfm := pipeline.NewTransformer(testStore(), nil, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	t.Run("unknown profile", func(t *testing.T) {
		_, err := tfm.Analyze(ctx, domain.AnalysisRequest{ID: "a", Profile: "ozone", Samples: mockdata.Grid(mockdata.DefaultGridSpec("o3"))})
		require.ErrorIs(t, err, domain.ErrUnknownProfile)
		assert.Contains(t, err.Error(), `"ozone"`)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := tfm.Analyze(ctx, domain.AnalysisRequest{ID: "b", Profile: config.ProfileUrbanHeat})
		require.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("insufficient data", func(t *testing.T) {
		samples := mockdata.Grid(mockdata.DefaultGridSpec("lst_c"))[:1]
		_, err := tfm.Analyze(ctx, domain.AnalysisRequest{ID: "c", Profile: config.ProfileUrbanHeat, Samples: samples})
		var insufficient *domain.InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "lst_c", insufficient.Field)
	})

	t.Run("malformed message", func(t *testing.T) {
		_, err := tfm.Transform(ctx, domain.RawEvent{Value: []byte("{")})
		require.Error(t, err)
		assert.Equal(t, observability.ErrorKindParse, pipeline.ErrorKind(err))
	})
}

func TestHotspotTransformer_AirQualityDrivers(t *testing.T) {
	spec := mockdata.DefaultGridSpec("no2", "pm25", "co")
	spec.Noise = 0.2
	tfm := pipeline.NewTransformer(testStore(), nil, discardLogger(), observability.NewMetricsForTesting())

	out, err := tfm.Analyze(context.Background(), domain.AnalysisRequest{
		ID:      "aq-1",
		Profile: config.ProfileAirQuality,
		Samples: mockdata.Grid(spec),
	})
	require.NoError(t, err)

	var center *domain.Hotspot
	for i := range out.Hotspots {
		if out.Hotspots[i].Index == spec.Index(5, 5) {
			center = &out.Hotspots[i]
		}
	}
	require.NotNil(t, center)
	// The anomaly is strongest in no2 and fades across later fields, but all
	// three still sit well above their column means.
	assert.Equal(t, []string{"no2", "pm25", "co"}, center.Drivers)
	assert.True(t, center.Visible)
	require.NotEmpty(t, out.Clusters)
	assert.Empty(t, out.Clusters[0].Label, "no geocoder, no labels")
}
