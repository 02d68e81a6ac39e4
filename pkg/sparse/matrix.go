// Package sparse implements the symmetric sparse matrices used by the
// affinity-graph and Laplacian stages of the diarization pipeline.
//
// Matrices are assembled in coordinate (COO) form via a [Builder] and
// compressed into immutable-structure CSR form ([Matrix]) before use. The
// graph-theoretic invariants of the pipeline — symmetry of the affinity
// matrix, the zero diagonal before Laplacian construction, connectivity of
// the graph — are exposed as checkable structural properties here rather
// than being implicit in dense arrays.
package sparse

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a square sparse matrix in compressed sparse row (CSR) form.
//
// The structure (row pointers and column indices) is fixed after
// construction; only entry values may be mutated through the provided
// methods. A Matrix is not safe for concurrent mutation, matching the
// per-recording ownership model of the pipeline: each recording builds,
// uses, and discards its own matrices.
type Matrix struct {
	n      int
	rowPtr []int
	colInd []int
	data   []float64
}

// Builder accumulates coordinate-form entries for a [Matrix].
// Duplicate (i, j) entries are summed during [Builder.Build].
type Builder struct {
	n    int
	rows []int
	cols []int
	vals []float64
}

// NewBuilder returns a Builder for an n×n matrix.
func NewBuilder(n int) *Builder {
	return &Builder{n: n}
}

// Set records the entry (i, j) = v. Entries recorded more than once are
// summed when the matrix is built. Panics if i or j is out of range; the
// builder is only ever fed loop indices, so a range violation is a bug.
func (b *Builder) Set(i, j int, v float64) {
	if i < 0 || i >= b.n || j < 0 || j >= b.n {
		panic(fmt.Sprintf("sparse: entry (%d, %d) out of range for %d×%d matrix", i, j, b.n, b.n))
	}
	b.rows = append(b.rows, i)
	b.cols = append(b.cols, j)
	b.vals = append(b.vals, v)
}

// Build compresses the accumulated entries into CSR form. Entries with the
// same coordinates are summed; zero-valued results are kept (structural
// zeros do not occur in practice because the affinity builder never emits
// them).
func (b *Builder) Build() *Matrix {
	type key struct{ i, j int }
	merged := make(map[key]float64, len(b.vals))
	for idx, v := range b.vals {
		merged[key{b.rows[idx], b.cols[idx]}] += v
	}

	perRow := make([][]int, b.n)
	for k := range merged {
		perRow[k.i] = append(perRow[k.i], k.j)
	}

	m := &Matrix{
		n:      b.n,
		rowPtr: make([]int, b.n+1),
		colInd: make([]int, 0, len(merged)),
		data:   make([]float64, 0, len(merged)),
	}
	for i := 0; i < b.n; i++ {
		cols := perRow[i]
		sort.Ints(cols)
		for _, j := range cols {
			m.colInd = append(m.colInd, j)
			m.data = append(m.data, merged[key{i, j}])
		}
		m.rowPtr[i+1] = len(m.colInd)
	}
	return m
}

// N returns the matrix dimension.
func (m *Matrix) N() int { return m.n }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.data) }

// At returns the entry (i, j), or 0 if it is not stored.
func (m *Matrix) At(i, j int) float64 {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	row := m.colInd[lo:hi]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return m.data[lo+k]
	}
	return 0
}

// Row calls fn for every stored entry (i, j, v) of row i, in ascending
// column order.
func (m *Matrix) Row(i int, fn func(j int, v float64)) {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(m.colInd[k], m.data[k])
	}
}

// Scale multiplies every stored entry by s in place.
func (m *Matrix) Scale(s float64) {
	for k := range m.data {
		m.data[k] *= s
	}
}

// SetDiag overwrites every stored diagonal entry with v. Rows without a
// stored diagonal entry are left untouched; Laplacian construction always
// stores the full diagonal, so after [Matrix.Laplacian] this method
// replaces the diagonal of every row.
func (m *Matrix) SetDiag(v float64) {
	for i := 0; i < m.n; i++ {
		lo, hi := m.rowPtr[i], m.rowPtr[i+1]
		row := m.colInd[lo:hi]
		k := sort.SearchInts(row, i)
		if k < len(row) && row[k] == i {
			m.data[lo+k] = v
		}
	}
}

// SetDiagVec overwrites the stored diagonal entry of row i with v[i].
// Like [Matrix.SetDiag], rows without a stored diagonal are skipped.
func (m *Matrix) SetDiagVec(v []float64) {
	if len(v) != m.n {
		panic(fmt.Sprintf("sparse: diagonal length %d does not match matrix dimension %d", len(v), m.n))
	}
	for i := 0; i < m.n; i++ {
		lo, hi := m.rowPtr[i], m.rowPtr[i+1]
		row := m.colInd[lo:hi]
		k := sort.SearchInts(row, i)
		if k < len(row) && row[k] == i {
			m.data[lo+k] = v[i]
		}
	}
}

// IsSymmetric reports whether every stored entry (i, j) has a matching
// entry (j, i) with the same value (exact float equality — the symmetrized
// affinity is constructed from identical additions on both sides).
func (m *Matrix) IsSymmetric() bool {
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			if m.At(m.colInd[k], i) != m.data[k] {
				return false
			}
		}
	}
	return true
}

// Degrees returns the degree vector of the graph represented by m: the sum
// of off-diagonal entries per row. The diagonal is excluded so that stored
// self-loops cannot distort Laplacian construction.
func (m *Matrix) Degrees() []float64 {
	deg := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			if m.colInd[k] != i {
				deg[i] += m.data[k]
			}
		}
	}
	return deg
}

// ConnectedComponents returns the number of connected components of the
// graph whose weighted adjacency is m. Entries with value 0 and diagonal
// entries do not connect vertices.
func (m *Matrix) ConnectedComponents() int {
	seen := make([]bool, m.n)
	var stack []int
	components := 0

	for start := 0; start < m.n; start++ {
		if seen[start] {
			continue
		}
		components++
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
				j := m.colInd[k]
				if j == i || m.data[k] == 0 || seen[j] {
					continue
				}
				seen[j] = true
				stack = append(stack, j)
			}
		}
	}
	return components
}

// SymDense returns a dense symmetric copy of m suitable for
// eigendecomposition. The caller must ensure m is symmetric; entries from
// the upper triangle (including the diagonal) are used.
func (m *Matrix) SymDense() *mat.SymDense {
	s := mat.NewSymDense(m.n, nil)
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			if j := m.colInd[k]; j >= i {
				s.SetSym(i, j, m.data[k])
			}
		}
	}
	return s
}
