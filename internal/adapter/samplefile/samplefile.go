// Package samplefile reads and writes sample grids as JSON or CSV files.
//
// Point shapefiles are read too, with numeric DBF attributes as fields.
//
// CSV files carry a header row of lat, lon, and one column per field. An
// empty cell, "NaN", or "null" marks a missing value. JSON files hold either
// an array of samples or an object with a "samples" array.
package samplefile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
)

// Format names a sample file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatSHP  Format = "shp"
)

// FormatFromPath infers the format from the file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".shp":
		return FormatSHP
	default:
		return FormatJSON
	}
}

// ReadFile reads the samples stored at path.
func ReadFile(path string) ([]domain.Sample, error) {
	if FormatFromPath(path) == FormatSHP {
		return readShapefile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// Read decodes samples in the given format.
func Read(r io.Reader, format Format) ([]domain.Sample, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSON:
		return readJSON(r)
	case FormatSHP:
		return nil, errors.New("shapefiles must be read with ReadFile")
	default:
		return nil, fmt.Errorf("unknown sample format %q", format)
	}
}

func readJSON(r io.Reader) ([]domain.Sample, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var samples []domain.Sample
		if err := dec.Decode(&samples); err != nil {
			return nil, fmt.Errorf("decode samples: %w", err)
		}
		return samples, nil
	}

	var wrapper struct {
		Samples []domain.Sample `json:"samples"`
	}
	if err := dec.Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return wrapper.Samples, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

func readCSV(r io.Reader) ([]domain.Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	latCol, lonCol := -1, -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		switch strings.ToLower(header[i]) {
		case "lat", "latitude":
			latCol = i
		case "lon", "lng", "longitude":
			lonCol = i
		}
	}
	if latCol < 0 || lonCol < 0 {
		return nil, errors.New("csv header must name lat and lon columns")
	}

	var samples []domain.Sample
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		s, err := parseRow(header, row, latCol, lonCol)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
}

func parseRow(header, row []string, latCol, lonCol int) (domain.Sample, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid lat %q", row[latCol])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(row[lonCol]), 64)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid lon %q", row[lonCol])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Sample{}, fmt.Errorf("coordinate (%g, %g) out of range", lat, lon)
	}

	fields := make(map[string]float64, len(header)-2)
	for i, name := range header {
		if i == latCol || i == lonCol {
			continue
		}
		fields[name] = parseValue(row[i])
	}
	return domain.Sample{Lat: lat, Lon: lon, Fields: fields}, nil
}

func parseValue(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "null") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// WriteJSON encodes samples as an indented JSON array.
func WriteJSON(w io.Writer, samples []domain.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(samples)
}

// WriteCSV encodes samples with one column per field name, sorted.
func WriteCSV(w io.Writer, samples []domain.Sample) error {
	names := fieldNames(samples)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"lat", "lon"}, names...)); err != nil {
		return err
	}
	row := make([]string, 2+len(names))
	for _, s := range samples {
		row[0] = strconv.FormatFloat(s.Lat, 'f', -1, 64)
		row[1] = strconv.FormatFloat(s.Lon, 'f', -1, 64)
		for i, name := range names {
			row[2+i] = ""
			if v, ok := s.Value(name); ok {
				row[2+i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fieldNames(samples []domain.Sample) []string {
	seen := make(map[string]bool)
	for _, s := range samples {
		for name := range s.Fields {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
