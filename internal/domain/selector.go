package domain

// ScoredSample is a sample with its standardized scores. Index is the
// sample's position in the analysis input.
type ScoredSample struct {
	Index          int                `json:"index"`
	Sample         Sample             `json:"sample"`
	FieldZ         map[string]float64 `json:"field_z"`
	CompositeIndex float64            `json:"composite_index"`
	CompositeZ     float64            `json:"composite_z"`
	Percentile     float64            `json:"percentile"`

	// Eligible is false when the missing-value policy excludes the sample.
	Eligible bool `json:"-"`
}

// CompositeIndex returns sum(weights[f] * fieldZ[f][i]) for every point i.
// All columns must have the same length.
func CompositeIndex(fieldZ [][]float64, weights []float64) []float64 {
	if len(fieldZ) == 0 {
		return nil
	}
	out := make([]float64, len(fieldZ[0]))
	for f, col := range fieldZ {
		w := weights[f]
		for i, z := range col {
			out[i] += w * z
		}
	}
	return out
}

// Score standardizes every configured field, builds the composite index,
// re-standardizes it, and ranks it. It returns one ScoredSample per input
// sample, in input order, or an InsufficientDataError when a field has fewer
// than two finite values.
func Score(samples []Sample, cfg Config) ([]ScoredSample, error) {
	fieldZ := make([][]float64, len(cfg.Fields))
	weights := make([]float64, len(cfg.Fields))
	missing := make([]bool, len(samples))

	for f, fw := range cfg.Fields {
		col := make([]float64, len(samples))
		for i, s := range samples {
			v, ok := s.Value(fw.Name)
			if !ok {
				missing[i] = true
			}
			col[i] = v
		}
		if n := countFinite(col); n < 2 {
			return nil, &InsufficientDataError{Field: fw.Name, Finite: n}
		}
		fieldZ[f] = ZScores(col)
		weights[f] = fw.Weight
	}

	composite := CompositeIndex(fieldZ, weights)
	compositeZ := ZScores(composite)
	pct := PercentileRanks(compositeZ)

	scored := make([]ScoredSample, len(samples))
	for i, s := range samples {
		zs := make(map[string]float64, len(cfg.Fields))
		for f, fw := range cfg.Fields {
			zs[fw.Name] = fieldZ[f][i]
		}
		scored[i] = ScoredSample{
			Index:          i,
			Sample:         s,
			FieldZ:         zs,
			CompositeIndex: composite[i],
			CompositeZ:     compositeZ[i],
			Percentile:     pct[i],
			Eligible:       cfg.MissingPolicy != MissingExclude || !missing[i],
		}
	}
	return scored, nil
}

// Qualifies applies the dual-threshold rule: either criterion alone suffices.
func (c Config) Qualifies(s ScoredSample) bool {
	if !s.Eligible {
		return false
	}
	return s.CompositeZ >= c.ZThreshold || s.Percentile >= c.PercentileThreshold
}

// Select returns the scored samples that qualify as hotspots, in input order.
func Select(scored []ScoredSample, cfg Config) []ScoredSample {
	var out []ScoredSample
	for _, s := range scored {
		if cfg.Qualifies(s) {
			out = append(out, s)
		}
	}
	return out
}
