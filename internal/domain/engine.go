package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Hotspot is a scored sample that passed selection.
type Hotspot struct {
	ScoredSample

	ClusterID int      `json:"cluster_id"`
	Severity  Severity `json:"severity"`
	// Visible is false for severity none; such points stay in the result
	// but are hidden by presentation layers.
	Visible bool `json:"visible"`
	// Drivers lists the fields whose z-score reached the driver threshold,
	// in configuration order.
	Drivers []string `json:"drivers,omitempty"`
}

// Cluster summarizes the hotspots sharing one cluster id.
type Cluster struct {
	ID int `json:"id"`
	// Members are indices into Result.Hotspots, ascending.
	Members  []int     `json:"members"`
	MeanZ    float64   `json:"mean_z"`
	Severity Severity  `json:"severity"`
	Centroid orb.Point `json:"centroid"`
	Label    string    `json:"label,omitempty"`
}

// Result is the outcome of one analysis run.
type Result struct {
	SampleCount int       `json:"sample_count"`
	Hotspots    []Hotspot `json:"hotspots"`
	// Clusters is indexed by cluster id.
	Clusters   []Cluster `json:"clusters"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ClusterMembers returns the cluster id to member-index mapping.
func (r Result) ClusterMembers() map[int][]int {
	m := make(map[int][]int, len(r.Clusters))
	for _, c := range r.Clusters {
		m[c.ID] = c.Members
	}
	return m
}

// NoiseCount returns how many hotspots belong to no cluster.
func (r Result) NoiseCount() int {
	var n int
	for _, h := range r.Hotspots {
		if h.ClusterID == Noise {
			n++
		}
	}
	return n
}

// Analyze runs scoring, selection, clustering, and severity classification
// over samples. It is a pure function of its arguments apart from the
// AnalyzedAt timestamp; identical input order and configuration reproduce
// identical hotspots and cluster ids.
func Analyze(samples []Sample, cfg Config) (Result, error) {
	if len(samples) == 0 {
		return Result{}, ErrEmptyInput
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	scored, err := Score(samples, cfg)
	if err != nil {
		return Result{}, err
	}
	selected := Select(scored, cfg)

	hotspots := make([]Hotspot, len(selected))
	points := make([]orb.Point, len(selected))
	for i, s := range selected {
		sev := cfg.Cutoffs.Classify(s.CompositeZ)
		hotspots[i] = Hotspot{
			ScoredSample: s,
			Severity:     sev,
			Visible:      sev != SeverityNone,
			Drivers:      drivers(s, cfg),
		}
		points[i] = s.Sample.Point()
	}

	labels := DBSCAN(points, cfg.Cluster)
	for i := range hotspots {
		hotspots[i].ClusterID = labels[i]
	}

	return Result{
		SampleCount: len(samples),
		Hotspots:    hotspots,
		Clusters:    summarizeClusters(hotspots, cfg.Cutoffs),
		AnalyzedAt:  clock.Now().UTC(),
	}, nil
}

func drivers(s ScoredSample, cfg Config) []string {
	var out []string
	for _, f := range cfg.Fields {
		if s.FieldZ[f.Name] >= cfg.DriverThreshold {
			out = append(out, f.Name)
		}
	}
	return out
}

// summarizeClusters groups hotspots by their dense cluster ids.
func summarizeClusters(hotspots []Hotspot, cutoffs Cutoffs) []Cluster {
	var count int
	for _, h := range hotspots {
		if h.ClusterID >= count {
			count = h.ClusterID + 1
		}
	}

	clusters := make([]Cluster, count)
	zs := make([][]float64, count)
	for i := range clusters {
		clusters[i].ID = i
	}
	for i, h := range hotspots {
		if h.ClusterID == Noise {
			continue
		}
		c := &clusters[h.ClusterID]
		c.Members = append(c.Members, i)
		c.Centroid[0] += h.Sample.Lon
		c.Centroid[1] += h.Sample.Lat
		zs[h.ClusterID] = append(zs[h.ClusterID], h.CompositeZ)
	}
	for i := range clusters {
		c := &clusters[i]
		n := float64(len(c.Members))
		if n > 0 {
			c.Centroid[0] /= n
			c.Centroid[1] /= n
		}
		c.MeanZ = mean(zs[i])
		c.Severity = cutoffs.ClusterSeverity(zs[i])
	}
	return clusters
}
