package diar

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MrWong99/voxturn/pkg/sparse"
)

// SpectralEmbedding computes the low-dimensional spectral representation of
// the affinity graph: one row per segment, nComponents columns.
//
// The graph Laplacian of affinity is formed (normalized divides by the
// degree diagonal), its diagonal is replaced with 1 (normalized) or the
// node degree (unnormalized) to keep the smallest eigenvalues away from
// degeneracies, and the Laplacian is negated so that the sought
// eigenvectors belong to the largest algebraic eigenvalues of −L — the
// smallest of L. In the normalized case the eigenvectors are divided
// element-wise by the per-node degree scaling, recovering the random-walk
// embedding from the symmetric form.
//
// Each eigenvector is sign-canonicalized by forcing its largest-magnitude
// entry positive, so repeated decompositions of the same affinity are
// bit-identical regardless of solver-internal sign choices.
//
// When dropFirst is true, one extra component is computed and the
// eigenvector of the trivial (all-ones-like) smallest eigenvalue is
// discarded; on a connected graph it carries no clustering information.
//
// A disconnected affinity graph is not an error: spectral guarantees are
// weaker, so a warning is logged and the decomposition proceeds.
//
// Returns [ErrConfig] if nComponents is out of range for the matrix size.
func SpectralEmbedding(affinity *sparse.Matrix, nComponents int, normalized, dropFirst bool) (*mat.Dense, error) {
	n := affinity.N()
	want := nComponents
	if dropFirst {
		want++
	}
	if nComponents < 1 || want > n {
		return nil, fmt.Errorf("%w: cannot extract %d spectral component(s) from %d segments", ErrConfig, nComponents, n)
	}

	if components := affinity.ConnectedComponents(); components > 1 {
		slog.Warn("affinity graph is not fully connected, spectral embedding may not work as expected",
			"components", components,
			"segments", n,
		)
	}

	lap, dd := affinity.Laplacian(normalized)
	if normalized {
		lap.SetDiag(1)
	} else {
		lap.SetDiagVec(dd)
	}
	lap.Scale(-1)

	var eig mat.EigenSym
	if ok := eig.Factorize(lap.SymDense(), true); !ok {
		return nil, fmt.Errorf("diar: eigendecomposition of %d×%d laplacian failed to converge", n, n)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order; the largest of −L (the
	// smallest of L) sit in the trailing columns. Reverse so column 0 is
	// the trivial component.
	points := mat.NewDense(n, want, nil)
	for c := 0; c < want; c++ {
		src := n - 1 - c
		for i := 0; i < n; i++ {
			v := vecs.At(i, src)
			if normalized {
				v /= dd[i]
			}
			points.Set(i, c, v)
		}
	}

	flipSigns(points)

	if dropFirst {
		return mat.DenseCopyOf(points.Slice(0, n, 1, want)), nil
	}
	return points, nil
}

// flipSigns canonicalizes eigenvector signs in place: for every column the
// entry of largest magnitude is forced positive.
func flipSigns(m *mat.Dense) {
	rows, cols := m.Dims()
	for c := 0; c < cols; c++ {
		maxAbs, maxVal := -1.0, 0.0
		for i := 0; i < rows; i++ {
			if a := math.Abs(m.At(i, c)); a > maxAbs {
				maxAbs, maxVal = a, m.At(i, c)
			}
		}
		if maxVal < 0 {
			for i := 0; i < rows; i++ {
				m.Set(i, c, -m.At(i, c))
			}
		}
	}
}
