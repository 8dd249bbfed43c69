package domain

import (
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// Noise marks a hotspot that belongs to no cluster.
const Noise = -1

// ClusterParams configures the density-based clustering pass.
type ClusterParams struct {
	// EpsMeters is the neighborhood radius.
	EpsMeters float64 `json:"eps_meters" yaml:"eps_meters"`
	// MinSamples is the density threshold, counting the point itself.
	MinSamples int `json:"min_samples" yaml:"min_samples"`
	// Workers splits the pairwise neighbor search across goroutines.
	// Values <= 1 run sequentially; results are identical either way.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

func (p ClusterParams) validate() error {
	if !isFinite(p.EpsMeters) || p.EpsMeters <= 0 {
		return invalidConfig("eps_meters", "must be positive and finite, got %g", p.EpsMeters)
	}
	if p.MinSamples < 1 {
		return invalidConfig("min_samples", "must be at least 1, got %d", p.MinSamples)
	}
	return nil
}

// Neighbors returns, for every point, the ascending indices of the other
// points within epsMeters. The relation is symmetric by construction: each
// pair is measured once and recorded on both sides.
func Neighbors(points []orb.Point, epsMeters float64, workers int) [][]int {
	n := len(points)
	upper := make([][]int, n)

	scanRows := func(from, to int) {
		for i := from; i < to; i++ {
			for j := i + 1; j < n; j++ {
				if HaversineMeters(points[i], points[j]) <= epsMeters {
					upper[i] = append(upper[i], j)
				}
			}
		}
	}

	if workers <= 1 || n < 2*workers {
		scanRows(0, n)
	} else {
		var g errgroup.Group
		chunk := (n + workers - 1) / workers
		for from := 0; from < n; from += chunk {
			from, to := from, min(from+chunk, n)
			g.Go(func() error {
				scanRows(from, to)
				return nil
			})
		}
		_ = g.Wait()
	}

	// Merging in row order keeps every list ascending regardless of how the
	// rows were partitioned.
	nbrs := make([][]int, n)
	for i := 0; i < n; i++ {
		for _, j := range upper[i] {
			nbrs[i] = append(nbrs[i], j)
			nbrs[j] = append(nbrs[j], i)
		}
	}
	return nbrs
}

// DBSCAN assigns a cluster id or Noise to every point, in input order.
//
// A point with fewer than MinSamples neighbors (itself included) is noise when
// first visited, but a later expansion may still absorb it as a border point.
// A point keeps the first cluster id it receives; clusters are never merged.
func DBSCAN(points []orb.Point, params ClusterParams) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	// Zero or one hotspot never forms a cluster.
	if n < 2 {
		return labels
	}

	nbrs := Neighbors(points, params.EpsMeters, params.Workers)
	dense := func(i int) bool { return len(nbrs[i])+1 >= params.MinSamples }

	visited := make([]bool, n)
	// seeded[q] == cid+1 means q is already queued for cluster cid.
	seeded := make([]int, n)

	cid := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		if !dense(i) {
			continue
		}

		labels[i] = cid
		mark := cid + 1
		seeds := make([]int, 0, len(nbrs[i]))
		for _, q := range nbrs[i] {
			seeds = append(seeds, q)
			seeded[q] = mark
		}

		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if !visited[j] {
				visited[j] = true
				if dense(j) {
					for _, q := range nbrs[j] {
						if seeded[q] != mark {
							seeds = append(seeds, q)
							seeded[q] = mark
						}
					}
				}
			}
			if labels[j] == Noise {
				labels[j] = cid
			}
		}
		cid++
	}
	return labels
}
