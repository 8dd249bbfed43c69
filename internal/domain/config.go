package domain

// MissingPolicy decides how samples with a missing configured field are treated.
type MissingPolicy string

const (
	// MissingZeroScore scores missing values as 0.0 (the column mean) and
	// leaves the sample eligible for selection. This under-counts outliers
	// when missingness correlates with extreme values.
	MissingZeroScore MissingPolicy = "zero_score"
	// MissingExclude still scores missing values as 0.0 but makes the sample
	// ineligible for hotspot selection.
	MissingExclude MissingPolicy = "exclude"
)

// Default selection and clustering parameters, matching the original analyzers.
const (
	DefaultZThreshold          = 1.0
	DefaultPercentileThreshold = 85.0
	DefaultEpsMeters           = 1500.0
	DefaultMinSamples          = 6
	DefaultDriverThreshold     = 1.0
)

// FieldWeight names one input field and its weight in the composite index.
type FieldWeight struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Config is the complete, explicit parameter set of one analysis run.
type Config struct {
	Fields              []FieldWeight `json:"fields" yaml:"fields"`
	ZThreshold          float64       `json:"z_threshold" yaml:"z_threshold"`
	PercentileThreshold float64       `json:"percentile_threshold" yaml:"percentile_threshold"`
	Cutoffs             Cutoffs       `json:"cutoffs" yaml:"cutoffs"`
	Cluster             ClusterParams `json:"cluster" yaml:"cluster"`
	MissingPolicy       MissingPolicy `json:"missing_policy" yaml:"missing_policy"`
	// DriverThreshold is the per-field z-score at which a field is reported
	// as a driver of a hotspot.
	DriverThreshold float64 `json:"driver_threshold" yaml:"driver_threshold"`
}

// DefaultConfig returns a Config with default thresholds for the given fields.
// Cutoffs follow the multi-field composite analysis (2.0 / 1.0 / 0.5).
func DefaultConfig(fields ...FieldWeight) Config {
	return Config{
		Fields:              fields,
		ZThreshold:          DefaultZThreshold,
		PercentileThreshold: DefaultPercentileThreshold,
		Cutoffs:             Cutoffs{Severe: 2.0, High: 1.0, Elevated: 0.5},
		Cluster:             ClusterParams{EpsMeters: DefaultEpsMeters, MinSamples: DefaultMinSamples},
		MissingPolicy:       MissingZeroScore,
		DriverThreshold:     DefaultDriverThreshold,
	}
}

// Validate reports the first configuration value the engine cannot use.
func (c Config) Validate() error {
	if len(c.Fields) == 0 {
		return invalidConfig("fields", "at least one field is required")
	}
	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			return invalidConfig("fields", "fields[%d]: name is required", i)
		}
		if seen[f.Name] {
			return invalidConfig("fields", "duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if !isFinite(f.Weight) {
			return invalidConfig("fields", "field %q: weight must be finite", f.Name)
		}
	}
	if !isFinite(c.ZThreshold) {
		return invalidConfig("z_threshold", "must be finite")
	}
	if !isFinite(c.PercentileThreshold) {
		return invalidConfig("percentile_threshold", "must be finite")
	}
	if !isFinite(c.DriverThreshold) {
		return invalidConfig("driver_threshold", "must be finite")
	}
	if err := c.Cutoffs.validate(); err != nil {
		return err
	}
	if err := c.Cluster.validate(); err != nil {
		return err
	}
	switch c.MissingPolicy {
	case MissingZeroScore, MissingExclude:
	default:
		return invalidConfig("missing_policy", "unknown policy %q", c.MissingPolicy)
	}
	return nil
}
