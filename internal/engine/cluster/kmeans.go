// Package cluster partitions embedding vectors with seeded k-means.
package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultMaxIterations caps Lloyd iterations when Config leaves it unset.
const DefaultMaxIterations = 100

// Config controls a k-means run. Identical points, K and Seed always give
// identical results.
type Config struct {
	K             int
	Seed          uint64
	MaxIterations int
}

// Result is the outcome of a k-means run. Some clusters may be empty when
// the data has fewer distinct points than K.
type Result struct {
	Assignments []int       // cluster index for each input point
	Centroids   [][]float32 // mean of each cluster's members; nil for empty clusters
	Sizes       []int
	Iterations  int
}

// KMeans runs k-means++ seeding followed by Lloyd iterations until no point
// changes cluster. Distance is squared Euclidean; ties go to the lower
// cluster index. K larger than the number of points is reduced to it.
func KMeans(points [][]float32, cfg Config) (Result, error) {
	if len(points) == 0 {
		return Result{}, fmt.Errorf("cluster: no points")
	}
	if cfg.K <= 0 {
		return Result{}, fmt.Errorf("cluster: K must be positive, got %d", cfg.K)
	}
	dim := len(points[0])
	if dim == 0 {
		return Result{}, fmt.Errorf("cluster: zero-dimension points")
	}
	for i, p := range points {
		if len(p) != dim {
			return Result{}, fmt.Errorf("cluster: point %d has dim %d, want %d", i, len(p), dim)
		}
	}
	k := min(cfg.K, len(points))
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	centers := seedPlusPlus(points, k, rng)

	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	iter := 0
	for iter < maxIter {
		iter++
		changed := false
		for i, p := range points {
			c := nearest(p, centers)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		means, _ := reduce(points, assign, k, dim)
		for c, m := range means {
			// An emptied cluster keeps its old center.
			if m != nil {
				centers[c] = m
			}
		}
	}

	means, sizes := reduce(points, assign, k, dim)
	return Result{Assignments: assign, Centroids: means, Sizes: sizes, Iterations: iter}, nil
}

// seedPlusPlus picks k initial centers, each subsequent one sampled with
// probability proportional to its squared distance from the nearest chosen
// center.
func seedPlusPlus(points [][]float32, k int, rng *rand.Rand) [][]float32 {
	centers := make([][]float32, 0, k)
	centers = append(centers, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		next := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range dist {
				acc += d
				if acc > target {
					next = i
					break
				}
			}
		}

		c := clone(points[next])
		centers = append(centers, c)
		for i, p := range points {
			dist[i] = math.Min(dist[i], sqDist(p, c))
		}
	}
	return centers
}

// reduce computes per-cluster means as a sum/count reduction, so the result
// does not depend on the order points are visited.
func reduce(points [][]float32, assign []int, k, dim int) ([][]float32, []int) {
	sums := make([][]float64, k)
	sizes := make([]int, k)
	for i, p := range points {
		c := assign[i]
		if sums[c] == nil {
			sums[c] = make([]float64, dim)
		}
		for d, v := range p {
			sums[c][d] += float64(v)
		}
		sizes[c]++
	}

	means := make([][]float32, k)
	for c, s := range sums {
		if sizes[c] == 0 {
			continue
		}
		m := make([]float32, dim)
		for d, v := range s {
			m[d] = float32(v / float64(sizes[c]))
		}
		means[c] = m
	}
	return means, sizes
}

func nearest(p []float32, centers [][]float32) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}
