// Package domain detects and characterizes anomalous regions ("hotspots") in
// a grid of geolocated environmental measurements.
//
// # Input
//
// A run consumes an ordered slice of [Sample] values produced by an upstream
// sampler (satellite composites, sensor grids). Each sample carries a
// WGS-84 latitude/longitude and one or more named numeric fields, e.g. a
// single land-surface temperature or three pollutant columns. A field value
// that is NaN, infinite, or absent from the map is "missing".
//
// # Scoring
//
// Every configured field is standardized independently:
//
//	z = (x - mean) / sqrt(max(variance, 1e-12))
//
// Mean and population variance use only finite values. Missing values score
// exactly 0.0. The weighted sum of per-field z-scores is the composite index,
// which is standardized again so it can be compared against a z threshold.
//
// # Selection
//
// A sample is a hotspot when its composite z-score reaches ZThreshold OR its
// inclusive percentile rank reaches PercentileThreshold:
//
//	Z_THRESHOLD = 1.0      strong outliers
//	PCTL_THRESHOLD = 85.0  broadly above normal (top 15%)
//
// # Clustering
//
// Hotspots are grouped with a DBSCAN-style pass over haversine distance
// (Earth radius 6,371,000 m). Cluster ids are dense, start at 0, and depend
// on input order: the first unvisited dense point opens cluster 0. Points that
// are not density-reachable from any dense point carry [Noise].
//
// # Severity
//
// Severity is derived from a z-score with three ascending cutoffs:
//
//	z >= severe    severe
//	z >= high      high
//	z >= elevated  elevated
//	otherwise      none (point hidden from presentation)
//
// Cluster severity uses the mean composite z of its members and never
// returns none; a weak cluster is still shown as elevated.
package domain
