package sparse_test

import (
	"math"
	"testing"

	"github.com/MrWong99/voxturn/pkg/sparse"
)

// path3 builds the adjacency of the unweighted path graph 0—1—2.
func path3() *sparse.Matrix {
	b := sparse.NewBuilder(3)
	b.Set(0, 1, 1)
	b.Set(1, 0, 1)
	b.Set(1, 2, 1)
	b.Set(2, 1, 1)
	return b.Build()
}

func TestBuilder_SumsDuplicates(t *testing.T) {
	t.Parallel()

	b := sparse.NewBuilder(2)
	b.Set(0, 1, 0.5)
	b.Set(0, 1, 0.5)
	m := b.Build()

	if got := m.At(0, 1); got != 1.0 {
		t.Errorf("At(0,1) = %v, want 1.0 (duplicates summed)", got)
	}
	if got := m.NNZ(); got != 1 {
		t.Errorf("NNZ = %d, want 1", got)
	}
}

func TestMatrix_AtAndRow(t *testing.T) {
	t.Parallel()

	m := path3()

	if got := m.At(0, 1); got != 1 {
		t.Errorf("At(0,1) = %v, want 1", got)
	}
	if got := m.At(0, 2); got != 0 {
		t.Errorf("At(0,2) = %v, want 0 (not stored)", got)
	}

	var cols []int
	m.Row(1, func(j int, v float64) { cols = append(cols, j) })
	if len(cols) != 2 || cols[0] != 0 || cols[1] != 2 {
		t.Errorf("Row(1) visited columns %v, want [0 2]", cols)
	}
}

func TestMatrix_IsSymmetric(t *testing.T) {
	t.Parallel()

	if !path3().IsSymmetric() {
		t.Error("path graph adjacency should be symmetric")
	}

	b := sparse.NewBuilder(2)
	b.Set(0, 1, 1)
	if b.Build().IsSymmetric() {
		t.Error("one-sided entry should not be symmetric")
	}
}

func TestMatrix_DegreesExcludeDiagonal(t *testing.T) {
	t.Parallel()

	b := sparse.NewBuilder(3)
	b.Set(0, 1, 1)
	b.Set(1, 0, 1)
	b.Set(1, 2, 1)
	b.Set(2, 1, 1)
	b.Set(1, 1, 7) // self-loop must not count toward the degree
	m := b.Build()

	deg := m.Degrees()
	want := []float64{1, 2, 1}
	for i := range want {
		if deg[i] != want[i] {
			t.Errorf("Degrees()[%d] = %v, want %v", i, deg[i], want[i])
		}
	}
}

func TestMatrix_ConnectedComponents(t *testing.T) {
	t.Parallel()

	if got := path3().ConnectedComponents(); got != 1 {
		t.Errorf("path graph: components = %d, want 1", got)
	}

	// Two disjoint edges: {0,1} and {2,3}.
	b := sparse.NewBuilder(4)
	b.Set(0, 1, 1)
	b.Set(1, 0, 1)
	b.Set(2, 3, 1)
	b.Set(3, 2, 1)
	if got := b.Build().ConnectedComponents(); got != 2 {
		t.Errorf("two disjoint edges: components = %d, want 2", got)
	}

	// Isolated vertices are their own components.
	if got := sparse.NewBuilder(3).Build().ConnectedComponents(); got != 3 {
		t.Errorf("empty graph: components = %d, want 3", got)
	}
}

func TestLaplacian_Combinatorial(t *testing.T) {
	t.Parallel()

	lap, deg := path3().Laplacian(false)

	// L = D - A for the path graph.
	want := [3][3]float64{
		{1, -1, 0},
		{-1, 2, -1},
		{0, -1, 1},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if got := lap.At(i, j); got != want[i][j] {
				t.Errorf("L[%d][%d] = %v, want %v", i, j, got, want[i][j])
			}
		}
	}
	if deg[1] != 2 {
		t.Errorf("degree[1] = %v, want 2", deg[1])
	}
}

func TestLaplacian_Normalized(t *testing.T) {
	t.Parallel()

	lap, scale := path3().Laplacian(true)

	// Diagonal of the normalized Laplacian is 1 for non-isolated vertices.
	for i := 0; i < 3; i++ {
		if got := lap.At(i, i); got != 1 {
			t.Errorf("L[%d][%d] = %v, want 1", i, i, got)
		}
	}
	// Off-diagonal (0,1): -1/sqrt(d0*d1) = -1/sqrt(2).
	want := -1 / math.Sqrt2
	if got := lap.At(0, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("L[0][1] = %v, want %v", got, want)
	}
	// Scaling vector is sqrt(degree).
	if got := scale[1]; math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Errorf("scale[1] = %v, want sqrt(2)", got)
	}
}

func TestLaplacian_IgnoresStoredDiagonal(t *testing.T) {
	t.Parallel()

	// Same path graph, but with self-loops stored (include_self affinity).
	b := sparse.NewBuilder(3)
	b.Set(0, 1, 1)
	b.Set(1, 0, 1)
	b.Set(1, 2, 1)
	b.Set(2, 1, 1)
	for i := 0; i < 3; i++ {
		b.Set(i, i, 0.5)
	}
	lap, _ := b.Build().Laplacian(false)

	ref, _ := path3().Laplacian(false)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if lap.At(i, j) != ref.At(i, j) {
				t.Fatalf("L[%d][%d] = %v, want %v (self-loops must not change the Laplacian)",
					i, j, lap.At(i, j), ref.At(i, j))
			}
		}
	}
}

func TestLaplacian_IsolatedVertex(t *testing.T) {
	t.Parallel()

	// Edge {0,1} plus isolated vertex 2.
	b := sparse.NewBuilder(3)
	b.Set(0, 1, 1)
	b.Set(1, 0, 1)
	lap, scale := b.Build().Laplacian(true)

	if got := lap.At(2, 2); got != 0 {
		t.Errorf("isolated vertex diagonal = %v, want 0", got)
	}
	if got := scale[2]; got != 1 {
		t.Errorf("isolated vertex scale = %v, want 1 (division guard)", got)
	}
}

func TestMatrix_SetDiag(t *testing.T) {
	t.Parallel()

	lap, _ := path3().Laplacian(false)
	lap.SetDiag(1)
	for i := 0; i < 3; i++ {
		if got := lap.At(i, i); got != 1 {
			t.Errorf("after SetDiag(1): L[%d][%d] = %v, want 1", i, i, got)
		}
	}

	lap.SetDiagVec([]float64{1, 2, 1})
	if got := lap.At(1, 1); got != 2 {
		t.Errorf("after SetDiagVec: L[1][1] = %v, want 2", got)
	}
}

func TestMatrix_ScaleAndSymDense(t *testing.T) {
	t.Parallel()

	lap, _ := path3().Laplacian(false)
	lap.Scale(-1)

	if got := lap.At(1, 1); got != -2 {
		t.Errorf("after Scale(-1): L[1][1] = %v, want -2", got)
	}

	d := lap.SymDense()
	r, c := d.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("SymDense dims = %d×%d, want 3×3", r, c)
	}
	if got := d.At(1, 0); got != 1 {
		t.Errorf("dense[1][0] = %v, want 1 (symmetric fill)", got)
	}
}
