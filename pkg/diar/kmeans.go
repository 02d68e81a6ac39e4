package diar

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultNInit   = 10
	defaultMaxIter = 300
)

// KMeansOption is a functional option for configuring a [KMeans].
type KMeansOption func(*KMeans)

// WithNInit sets how many independent random initializations are run; the
// lowest-inertia result is kept. Default: 10.
func WithNInit(n int) KMeansOption {
	return func(km *KMeans) {
		km.nInit = n
	}
}

// WithMaxIter caps the number of Lloyd iterations per initialization.
// Default: 300.
func WithMaxIter(n int) KMeansOption {
	return func(km *KMeans) {
		km.maxIter = n
	}
}

// KMeans assigns cluster labels to spectral points with Lloyd's algorithm
// using k-means++ seeding.
//
// Repeating several independent initializations and keeping the
// lowest-inertia result mitigates sensitivity to local minima. All
// randomness flows from the seed passed to [KMeans.Partition], so results
// are deterministic for a fixed seed; the label values themselves are an
// arbitrary permutation of {0,…,k−1} with no meaning across recordings.
//
// A KMeans is read-only after construction and safe for concurrent use.
type KMeans struct {
	nInit   int
	maxIter int
}

// NewKMeans returns a [KMeans] configured with the supplied options.
func NewKMeans(opts ...KMeansOption) *KMeans {
	km := &KMeans{
		nInit:   defaultNInit,
		maxIter: defaultMaxIter,
	}
	for _, o := range opts {
		o(km)
	}
	return km
}

// Partition clusters the rows of points into k groups and returns one
// label in [0, k) per row.
//
// k == number of rows is valid (every point becomes its own cluster);
// k greater than the number of rows fails with [ErrConfig].
func (km *KMeans) Partition(points *mat.Dense, k int, seed int64) ([]int, error) {
	n, _ := points.Dims()
	if k < 1 {
		return nil, fmt.Errorf("%w: k = %d, must be >= 1", ErrConfig, k)
	}
	if k > n {
		return nil, fmt.Errorf("%w: k = %d exceeds the number of points %d", ErrConfig, k, n)
	}

	rng := rand.New(rand.NewSource(seed))

	bestInertia := math.Inf(1)
	var bestLabels []int

	for init := 0; init < km.nInit; init++ {
		centers := km.seedCenters(points, k, rng)
		labels, inertia := km.lloyd(points, centers, k)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}

	return bestLabels, nil
}

// seedCenters picks k initial centroids with k-means++: the first uniformly
// at random, each subsequent one with probability proportional to its
// squared distance from the nearest already-chosen center.
func (km *KMeans) seedCenters(points *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, dim := points.Dims()
	centers := mat.NewDense(k, dim, nil)

	first := rng.Intn(n)
	centers.SetRow(0, mat.Row(nil, first, points))

	// minDist[i] tracks the squared distance of point i to its nearest
	// chosen center so far.
	minDist := make([]float64, n)
	for i := 0; i < n; i++ {
		minDist[i] = sqDist(points, i, centers, 0)
	}

	for c := 1; c < k; c++ {
		total := 0.0
		for _, d := range minDist {
			total += d
		}

		var pick int
		if total == 0 {
			// All remaining points coincide with chosen centers; fall back
			// to a uniform draw so seeding still terminates.
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			cum := 0.0
			pick = -1
			for i, d := range minDist {
				if d == 0 {
					continue // already a center (or coincides with one)
				}
				cum += d
				pick = i
				if cum >= target {
					break
				}
			}
		}

		centers.SetRow(c, mat.Row(nil, pick, points))
		for i := 0; i < n; i++ {
			if d := sqDist(points, i, centers, c); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	return centers
}

// lloyd runs alternating assignment/update steps until the assignment is
// stable or maxIter is reached, returning the final labels and inertia.
func (km *KMeans) lloyd(points, centers *mat.Dense, k int) ([]int, float64) {
	n, dim := points.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	counts := make([]int, k)

	for iter := 0; iter < km.maxIter; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestD := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				if d := sqDist(points, i, centers, c); d < bestD {
					best, bestD = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Update step: recompute centroids as cluster means.
		centers.Zero()
		for c := range counts {
			counts[c] = 0
		}
		for i := 0; i < n; i++ {
			c := labels[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				centers.Set(c, d, centers.At(c, d)+points.At(i, d))
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Relocate an empty cluster to the point currently worst
				// served by its centroid.
				centers.SetRow(c, mat.Row(nil, farthestPoint(points, centers, labels), points))
				continue
			}
			for d := 0; d < dim; d++ {
				centers.Set(c, d, centers.At(c, d)/float64(counts[c]))
			}
		}
	}

	inertia := 0.0
	for i := 0; i < n; i++ {
		inertia += sqDist(points, i, centers, labels[i])
	}
	return labels, inertia
}

// farthestPoint returns the index of the point with the largest squared
// distance to its assigned centroid.
func farthestPoint(points, centers *mat.Dense, labels []int) int {
	n, _ := points.Dims()
	worst, worstD := 0, -1.0
	for i := 0; i < n; i++ {
		if d := sqDist(points, i, centers, labels[i]); d > worstD {
			worst, worstD = i, d
		}
	}
	return worst
}

// sqDist returns the squared Euclidean distance between row i of points
// and row c of centers.
func sqDist(points *mat.Dense, i int, centers *mat.Dense, c int) float64 {
	_, dim := points.Dims()
	sum := 0.0
	for d := 0; d < dim; d++ {
		diff := points.At(i, d) - centers.At(c, d)
		sum += diff * diff
	}
	return sum
}
