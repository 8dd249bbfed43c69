package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_UnmarshalJSON(t *testing.T) {
	t.Run("null is missing", func(t *testing.T) {
		var s Sample
		require.NoError(t, json.Unmarshal([]byte(`{"lat":23.7,"lon":90.32,"fields":{"no2":0.00012,"co":null}}`), &s))
		assert.Equal(t, 23.7, s.Lat)
		assert.Equal(t, 90.32, s.Lon)

		v, ok := s.Value("no2")
		assert.True(t, ok)
		assert.Equal(t, 0.00012, v)

		_, ok = s.Value("co")
		assert.False(t, ok)
		assert.True(t, math.IsNaN(s.Fields["co"]))

		_, ok = s.Value("pm25")
		assert.False(t, ok)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		var s Sample
		err := json.Unmarshal([]byte(`{"lat":91,"lon":0,"fields":{}}`), &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("longitude out of range", func(t *testing.T) {
		var s Sample
		err := json.Unmarshal([]byte(`{"lat":0,"lon":-181,"fields":{}}`), &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude")
	})
}

func TestSample_MarshalJSON(t *testing.T) {
	s := Sample{Lat: 1, Lon: 2, Fields: map[string]float64{"a": 3, "b": math.NaN()}}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":1,"lon":2,"fields":{"a":3,"b":null}}`, string(data))
}

func TestParseRawRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		raw := RawEvent{
			Key:   []byte("req-1"),
			Value: []byte(`{"id":"job-7","profile":"urban_heat","samples":[{"lat":23.7,"lon":90.3,"fields":{"lst_c":34.1}}]}`),
		}
		req, err := ParseRawRequest(raw)
		require.NoError(t, err)
		assert.Equal(t, "job-7", req.ID)
		assert.Equal(t, "urban_heat", req.Profile)
		require.Len(t, req.Samples, 1)
		assert.Equal(t, 34.1, req.Samples[0].Fields["lst_c"])
	})

	t.Run("id falls back to key", func(t *testing.T) {
		req, err := ParseRawRequest(RawEvent{Key: []byte("req-2"), Value: []byte(`{"profile":"air_quality"}`)})
		require.NoError(t, err)
		assert.Equal(t, "req-2", req.ID)
		assert.Empty(t, req.Samples)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawRequest(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse analysis request")
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := ParseRawRequest(RawEvent{Value: []byte(`{"id":"x"}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile is required")
	})

	t.Run("bad coordinates", func(t *testing.T) {
		_, err := ParseRawRequest(RawEvent{Value: []byte(`{"profile":"p","samples":[{"lat":100,"lon":0}]}`)})
		require.Error(t, err)
	})
}
