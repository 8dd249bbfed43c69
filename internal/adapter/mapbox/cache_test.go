package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Fatullah", FormattedAddress: "Fatullah, Bangladesh"}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 23.6401, 90.4862)
	require.NoError(t, err)
	// Within the key precision, so it shares the entry.
	r2, err := cached.ReverseGeocode(context.Background(), 23.64012, 90.48618)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "Somewhere"}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ReverseGeocode(context.Background(), 23.70, 90.40)
	_, _ = cached.ReverseGeocode(context.Background(), 23.80, 90.40)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyAndErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("timeout")
	_, err := cached.ReverseGeocode(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, 0, cached.cache.size())
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	a, b, d := cacheKey{1, 1}, cacheKey{2, 2}, cacheKey{3, 3}

	c.put(a, domain.GeocodingResult{PlaceName: "A"})
	c.put(b, domain.GeocodingResult{PlaceName: "B"})
	c.put(d, domain.GeocodingResult{PlaceName: "D"}) // evicts a

	_, ok := c.get(a)
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get(b)
	assert.True(t, ok)
	assert.Equal(t, "B", result.PlaceName)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	a, b, d := cacheKey{1, 1}, cacheKey{2, 2}, cacheKey{3, 3}

	c.put(a, domain.GeocodingResult{PlaceName: "A"})
	c.put(b, domain.GeocodingResult{PlaceName: "B"})
	c.get(a)
	c.put(d, domain.GeocodingResult{PlaceName: "D"})

	_, ok := c.get(a)
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get(b)
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	a := cacheKey{1, 1}

	c.put(a, domain.GeocodingResult{PlaceName: "A1"})
	c.put(a, domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get(a)
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
	assert.Equal(t, 1, c.size())
}
