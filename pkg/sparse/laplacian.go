package sparse

import "math"

// Laplacian derives the graph Laplacian of the adjacency matrix m.
//
// Stored diagonal entries of m are ignored, so an affinity matrix built
// with self-loops (include_self) produces the same Laplacian as one built
// without them.
//
// For normalized == false the combinatorial Laplacian L = D − A is
// returned together with the degree vector d.
//
// For normalized == true the symmetric normalized Laplacian
// L = I − D^{−1/2} A D^{−1/2} is returned together with the vector
// sqrt(d). Isolated vertices (degree 0) get a zero diagonal entry and a
// scaling value of 1 so downstream divisions stay finite.
//
// The returned matrix stores the full diagonal explicitly, so
// [Matrix.SetDiag] and [Matrix.SetDiagVec] afterwards replace every
// diagonal entry.
func (m *Matrix) Laplacian(normalized bool) (*Matrix, []float64) {
	deg := m.Degrees()

	b := NewBuilder(m.n)
	if !normalized {
		for i := 0; i < m.n; i++ {
			b.Set(i, i, deg[i])
			m.Row(i, func(j int, v float64) {
				if j != i && v != 0 {
					b.Set(i, j, -v)
				}
			})
		}
		return b.Build(), deg
	}

	scale := make([]float64, m.n)
	for i, d := range deg {
		if d > 0 {
			scale[i] = math.Sqrt(d)
		} else {
			scale[i] = 1
		}
	}
	for i := 0; i < m.n; i++ {
		if deg[i] > 0 {
			b.Set(i, i, 1)
		} else {
			b.Set(i, i, 0)
		}
		m.Row(i, func(j int, v float64) {
			if j != i && v != 0 {
				b.Set(i, j, -v/(scale[i]*scale[j]))
			}
		})
	}
	return b.Build(), scale
}
