// Package geojson renders analysis results as GeoJSON for map display.
// Only visible hotspots are drawn; each cluster contributes one centroid point.
package geojson

import (
	"math"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
	orbgeojson "github.com/paulmach/orb/geojson"
)

// Values of the "kind" feature property.
const (
	KindHotspot = "hotspot"
	KindCluster = "cluster"
)

// ContentType is the media type of encoded collections.
const ContentType = "application/geo+json"

// FeatureCollection builds the collection for r: hotspot features in result
// order followed by cluster centroid features in id order.
func FeatureCollection(r domain.Result) *orbgeojson.FeatureCollection {
	fc := orbgeojson.NewFeatureCollection()
	for _, h := range r.Hotspots {
		if !h.Visible {
			continue
		}
		fc.Append(hotspotFeature(h))
	}
	for _, c := range r.Clusters {
		fc.Append(clusterFeature(c))
	}
	return fc
}

// Encode marshals the FeatureCollection for r.
func Encode(r domain.Result) ([]byte, error) {
	return FeatureCollection(r).MarshalJSON()
}

func hotspotFeature(h domain.Hotspot) *orbgeojson.Feature {
	f := orbgeojson.NewFeature(h.Sample.Point())
	f.Properties["kind"] = KindHotspot
	f.Properties["index"] = h.Index
	f.Properties["severity"] = string(h.Severity)
	f.Properties["composite_z"] = h.CompositeZ
	f.Properties["percentile"] = h.Percentile
	f.Properties["cluster_id"] = h.ClusterID
	if len(h.Drivers) > 0 {
		f.Properties["drivers"] = h.Drivers
	}

	// Missing values are NaN and have no JSON form.
	values := make(map[string]float64, len(h.Sample.Fields))
	for name, v := range h.Sample.Fields {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[name] = v
		}
	}
	if len(values) > 0 {
		f.Properties["values"] = values
	}
	return f
}

func clusterFeature(c domain.Cluster) *orbgeojson.Feature {
	f := orbgeojson.NewFeature(c.Centroid)
	f.Properties["kind"] = KindCluster
	f.Properties["cluster_id"] = c.ID
	f.Properties["size"] = len(c.Members)
	f.Properties["mean_z"] = c.MeanZ
	f.Properties["severity"] = string(c.Severity)
	if c.Label != "" {
		f.Properties["label"] = c.Label
	}
	return f
}
