package domain

// Severity is an ordinal hotspot classification derived from a z-score.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityHigh     Severity = "high"
	SeverityElevated Severity = "elevated"
	SeverityNone     Severity = "none"
)

// Rank orders severities from none (0) to severe (3).
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityHigh:
		return 2
	case SeverityElevated:
		return 1
	default:
		return 0
	}
}

// Cutoffs are the ascending z-score boundaries of the severity buckets.
// Severe > High > Elevated must hold.
type Cutoffs struct {
	Severe   float64 `json:"severe" yaml:"severe"`
	High     float64 `json:"high" yaml:"high"`
	Elevated float64 `json:"elevated" yaml:"elevated"`
}

// Classify maps a point-level z-score to a severity bucket.
func (c Cutoffs) Classify(z float64) Severity {
	switch {
	case z >= c.Severe:
		return SeveritySevere
	case z >= c.High:
		return SeverityHigh
	case z >= c.Elevated:
		return SeverityElevated
	default:
		return SeverityNone
	}
}

// ClusterSeverity classifies the mean of the members' composite z-scores.
// Clusters are always shown, so a mean below the elevated cutoff (or an
// empty member list) still yields elevated.
func (c Cutoffs) ClusterSeverity(zs []float64) Severity {
	if len(zs) == 0 {
		return SeverityElevated
	}
	s := c.Classify(mean(zs))
	if s == SeverityNone {
		return SeverityElevated
	}
	return s
}

func (c Cutoffs) validate() error {
	if !isFinite(c.Severe) || !isFinite(c.High) || !isFinite(c.Elevated) {
		return invalidConfig("cutoffs", "must be finite")
	}
	if !(c.Severe > c.High && c.High > c.Elevated) {
		return invalidConfig("cutoffs", "must satisfy severe > high > elevated, got %g/%g/%g", c.Severe, c.High, c.Elevated)
	}
	return nil
}
