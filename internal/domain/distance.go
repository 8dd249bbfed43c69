package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
// orb/geo uses the equatorial radius, which would shift eps boundaries.
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two lon/lat points.
func HaversineMeters(a, b orb.Point) float64 {
	p1 := degToRad(a.Lat())
	p2 := degToRad(b.Lat())
	dPhi := p2 - p1
	dLambda := degToRad(b.Lon() - a.Lon())

	s1 := math.Sin(dPhi / 2)
	s2 := math.Sin(dLambda / 2)
	h := s1*s1 + math.Cos(p1)*math.Cos(p2)*s2*s2
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(math.Min(h, 1)))
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
