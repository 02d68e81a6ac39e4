package diar

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/MrWong99/voxturn/pkg/sparse"
)

// BuildAffinity constructs the symmetric sparse nearest-neighbor affinity
// graph over one recording's embedding set.
//
// For every point the `neighbors` nearest points under Euclidean distance
// form a directed connectivity graph G (edge weight 1). The result is the
// symmetrized A = 0.5·(G + Gᵗ): an entry is 0.5 for a unilateral neighbor
// relation and 1.0 for a mutual one, never more.
//
// includeSelf controls whether a point counts as its own nearest neighbor.
// When true the diagonal of A is 1; the Laplacian stage ignores stored
// diagonal entries, so this only affects degree normalization through the
// off-diagonal structure, not clustering correctness.
//
// When neighbors >= len(embeddings) every pair becomes connected and the
// affinity degrades gracefully to a dense matrix.
//
// Returns [ErrConfig] if neighbors < 1 or fewer than 2 embeddings are
// supplied, and [ErrData] if the embeddings do not share one dimension.
func BuildAffinity(embeddings [][]float32, neighbors int, includeSelf bool) (*sparse.Matrix, error) {
	n := len(embeddings)
	if neighbors < 1 {
		return nil, fmt.Errorf("%w: neighbors = %d, must be >= 1", ErrConfig, neighbors)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: %d segment(s) supplied, clustering needs at least 2", ErrConfig, n)
	}

	dim := len(embeddings[0])
	points := make([][]float64, n)
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d", ErrData, i, len(e), dim)
		}
		p := make([]float64, dim)
		for d, v := range e {
			p[d] = float64(v)
		}
		points[i] = p
	}

	b := sparse.NewBuilder(n)
	dist := make([]float64, n)
	order := make([]int, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dist[j] = floats.Distance(points[i], points[j], 2)
			order[j] = j
		}
		// Deterministic neighbor ranking: ties broken by point index.
		sort.SliceStable(order, func(a, b int) bool {
			return dist[order[a]] < dist[order[b]]
		})

		picked := 0
		for _, j := range order {
			if j == i && !includeSelf {
				continue
			}
			if picked == neighbors {
				break
			}
			// Each directed edge contributes half to both (i,j) and (j,i),
			// yielding A = 0.5·(G + Gᵗ) after duplicate summation.
			b.Set(i, j, 0.5)
			b.Set(j, i, 0.5)
			picked++
		}
	}

	return b.Build(), nil
}
