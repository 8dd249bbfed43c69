package domain

import (
	"context"
	"log/slog"
)

// LabelClusters names each cluster after the place nearest its centroid.
// If geocoder is nil or a lookup fails, the label stays empty (graceful
// degradation); the returned count is the number of clusters labelled.
func LabelClusters(ctx context.Context, result Result, geocoder Geocoder, logger *slog.Logger) (Result, int) {
	if geocoder == nil || len(result.Clusters) == 0 {
		return result, 0
	}

	clusters := make([]Cluster, len(result.Clusters))
	copy(clusters, result.Clusters)

	var labelled int
	for i := range clusters {
		c := &clusters[i]
		if ctx.Err() != nil {
			break
		}
		geo, err := geocoder.ReverseGeocode(ctx, c.Centroid.Lat(), c.Centroid.Lon())
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"cluster_id", c.ID,
				"lat", c.Centroid.Lat(),
				"lon", c.Centroid.Lon(),
				"error", err,
			)
			continue
		}
		label := geo.PlaceName
		if label == "" {
			label = geo.FormattedAddress
		}
		if label != "" {
			c.Label = label
			labelled++
		}
	}

	result.Clusters = clusters
	return result, labelled
}
