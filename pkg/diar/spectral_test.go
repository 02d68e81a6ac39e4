package diar_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/MrWong99/voxturn/pkg/diar"
	"github.com/MrWong99/voxturn/pkg/sparse"
)

// connected4 builds a connected affinity over two tight pairs of points:
// with 2 neighbors per point the pairs link up into one component.
func connected4(t *testing.T) *sparse.Matrix {
	t.Helper()
	a, err := diar.BuildAffinity(line4(), 2, false)
	if err != nil {
		t.Fatalf("BuildAffinity: %v", err)
	}
	if got := a.ConnectedComponents(); got != 1 {
		t.Fatalf("fixture graph has %d components, want 1", got)
	}
	return a
}

func TestSpectralEmbedding_Dimensions(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	points, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding: %v", err)
	}
	r, c := points.Dims()
	if r != 4 || c != 2 {
		t.Errorf("dims = %d×%d, want 4×2", r, c)
	}

	dropped, err := diar.SpectralEmbedding(a, 2, true, true)
	if err != nil {
		t.Fatalf("SpectralEmbedding with dropFirst: %v", err)
	}
	r, c = dropped.Dims()
	if r != 4 || c != 2 {
		t.Errorf("dropFirst dims = %d×%d, want 4×2", r, c)
	}
}

func TestSpectralEmbedding_TrivialComponentIsConstant(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	// On a connected graph the first component of the normalized embedding
	// (after division by the degree scaling) is the constant vector, made
	// positive by sign canonicalization.
	points, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding: %v", err)
	}

	first := points.At(0, 0)
	if first <= 0 {
		t.Errorf("trivial component entry = %v, want > 0 after sign flip", first)
	}
	for i := 1; i < 4; i++ {
		if diff := math.Abs(points.At(i, 0) - first); diff > 1e-8 {
			t.Errorf("trivial component not constant: |points[%d][0] - points[0][0]| = %g", i, diff)
		}
	}
}

func TestSpectralEmbedding_FiedlerSeparatesPairs(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	points, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding: %v", err)
	}

	// The second component must place the two tight pairs on opposite
	// sides of zero.
	if points.At(0, 1)*points.At(1, 1) <= 0 {
		t.Errorf("points 0 and 1 should share a Fiedler side: %v vs %v", points.At(0, 1), points.At(1, 1))
	}
	if points.At(2, 1)*points.At(3, 1) <= 0 {
		t.Errorf("points 2 and 3 should share a Fiedler side: %v vs %v", points.At(2, 1), points.At(3, 1))
	}
	if points.At(0, 1)*points.At(2, 1) >= 0 {
		t.Errorf("the two pairs should sit on opposite Fiedler sides: %v vs %v", points.At(0, 1), points.At(2, 1))
	}
}

func TestSpectralEmbedding_SignFlipStability(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	first, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding (first run): %v", err)
	}
	second, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding (second run): %v", err)
	}

	if !mat.Equal(first, second) {
		t.Error("repeated decompositions of the same affinity differ; sign canonicalization broken")
	}
}

func TestSpectralEmbedding_UnnormalizedLaplacian(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	points, err := diar.SpectralEmbedding(a, 2, false, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding unnormalized: %v", err)
	}

	// The combinatorial Laplacian's null vector is constant already; its
	// Fiedler vector still separates the two pairs.
	if points.At(0, 1)*points.At(2, 1) >= 0 {
		t.Errorf("the two pairs should sit on opposite Fiedler sides: %v vs %v", points.At(0, 1), points.At(2, 1))
	}
}

func TestSpectralEmbedding_DisconnectedGraphIsNotFatal(t *testing.T) {
	t.Parallel()

	// With a single neighbor the two pairs stay disconnected. The
	// embedding must still be produced (warning condition only).
	a, err := diar.BuildAffinity(line4(), 1, false)
	if err != nil {
		t.Fatalf("BuildAffinity: %v", err)
	}
	if got := a.ConnectedComponents(); got != 2 {
		t.Fatalf("fixture graph has %d components, want 2", got)
	}

	points, err := diar.SpectralEmbedding(a, 2, true, false)
	if err != nil {
		t.Fatalf("SpectralEmbedding on disconnected graph: %v", err)
	}
	if r, _ := points.Dims(); r != 4 {
		t.Errorf("rows = %d, want 4", r)
	}
}

func TestSpectralEmbedding_ComponentRangeErrors(t *testing.T) {
	t.Parallel()

	a := connected4(t)

	if _, err := diar.SpectralEmbedding(a, 0, true, false); !errors.Is(err, diar.ErrConfig) {
		t.Errorf("nComponents = 0: err = %v, want ErrConfig", err)
	}
	if _, err := diar.SpectralEmbedding(a, 5, true, false); !errors.Is(err, diar.ErrConfig) {
		t.Errorf("nComponents > N: err = %v, want ErrConfig", err)
	}
	// dropFirst needs one spare component.
	if _, err := diar.SpectralEmbedding(a, 4, true, true); !errors.Is(err, diar.ErrConfig) {
		t.Errorf("nComponents = N with dropFirst: err = %v, want ErrConfig", err)
	}
}
