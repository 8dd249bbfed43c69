package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Sample is one raw observation at a WGS-84 coordinate.
// A NaN, infinite, or absent field value is treated as missing.
type Sample struct {
	Lat    float64
	Lon    float64
	Fields map[string]float64
}

// Point returns the sample location as an orb.Point (lon, lat).
func (s Sample) Point() orb.Point {
	return orb.Point{s.Lon, s.Lat}
}

// Value returns the named field and whether it is present and finite.
func (s Sample) Value(field string) (float64, bool) {
	v, ok := s.Fields[field]
	if !ok || !isFinite(v) {
		return math.NaN(), false
	}
	return v, true
}

// sampleWire is the JSON form of a Sample. Missing values travel as null.
type sampleWire struct {
	Lat    float64             `json:"lat"`
	Lon    float64             `json:"lon"`
	Fields map[string]*float64 `json:"fields"`
}

// MarshalJSON encodes missing field values as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	w := sampleWire{Lat: s.Lat, Lon: s.Lon, Fields: make(map[string]*float64, len(s.Fields))}
	for name, v := range s.Fields {
		if !isFinite(v) {
			w.Fields[name] = nil
			continue
		}
		v := v
		w.Fields[name] = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes null field values as NaN and rejects out-of-range coordinates.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var w sampleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Lat < -90 || w.Lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", w.Lat)
	}
	if w.Lon < -180 || w.Lon > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", w.Lon)
	}
	s.Lat = w.Lat
	s.Lon = w.Lon
	s.Fields = make(map[string]float64, len(w.Fields))
	for name, v := range w.Fields {
		if v == nil {
			s.Fields[name] = math.NaN()
			continue
		}
		s.Fields[name] = *v
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
