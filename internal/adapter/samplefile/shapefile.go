package samplefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
)

// readShapefile loads a point shapefile. Every numeric DBF attribute becomes
// a sample field, named in lower case; X and Y are taken as lon and lat.
func readShapefile(path string) ([]domain.Sample, error) {
	// The reader opens the attribute table lazily and drops any error doing so.
	dbf := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(dbf); err != nil {
		return nil, fmt.Errorf("shapefile %s: attribute table: %w", path, err)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	if reader.GeometryType != shp.POINT {
		return nil, fmt.Errorf("shapefile %s: want point geometry, got type %d", path, reader.GeometryType)
	}

	fields := reader.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("shapefile %s: attribute table has no fields", path)
	}
	names := make([]string, len(fields))
	numeric := make([]bool, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		numeric[i] = f.Fieldtype == 'N' || f.Fieldtype == 'F'
	}

	var samples []domain.Sample
	for reader.Next() {
		n, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			return nil, fmt.Errorf("shapefile %s: record %d is not a point", path, n)
		}
		if pt.Y < -90 || pt.Y > 90 || pt.X < -180 || pt.X > 180 {
			return nil, fmt.Errorf("shapefile %s: record %d: coordinate (%g, %g) out of range", path, n, pt.Y, pt.X)
		}

		values := make(map[string]float64, len(fields))
		for i := range fields {
			if !numeric[i] {
				continue
			}
			values[names[i]] = parseValue(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		samples = append(samples, domain.Sample{Lat: pt.Y, Lon: pt.X, Fields: values})
	}
	if len(samples) == 0 {
		return nil, errors.New("shapefile has no records")
	}
	return samples, nil
}
