package diar_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/MrWong99/voxturn/pkg/diar"
)

// blobs6 returns six 2-D points forming two well-separated clusters:
// rows 0–2 around the origin, rows 3–5 around (10, 10).
func blobs6() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0.0, 0.0,
		0.1, 0.0,
		0.0, 0.1,
		10.0, 10.0,
		10.1, 10.0,
		10.0, 10.1,
	})
}

func TestKMeans_SeparatesBlobs(t *testing.T) {
	t.Parallel()

	km := diar.NewKMeans()
	labels, err := km.Partition(blobs6(), 2, 42)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(labels) != 6 {
		t.Fatalf("len(labels) = %d, want 6", len(labels))
	}

	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("first blob split across clusters: %v", labels[:3])
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("second blob split across clusters: %v", labels[3:])
	}
	if labels[0] == labels[3] {
		t.Errorf("blobs assigned the same cluster: %v", labels)
	}
}

func TestKMeans_DeterministicForFixedSeed(t *testing.T) {
	t.Parallel()

	km := diar.NewKMeans()
	first, err := km.Partition(blobs6(), 2, 1234)
	if err != nil {
		t.Fatalf("Partition (first run): %v", err)
	}
	second, err := km.Partition(blobs6(), 2, 1234)
	if err != nil {
		t.Fatalf("Partition (second run): %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("labels differ at %d for identical seed: %v vs %v", i, first, second)
		}
	}
}

func TestKMeans_KEqualsN(t *testing.T) {
	t.Parallel()

	km := diar.NewKMeans()
	labels, err := km.Partition(blobs6(), 6, 7)
	if err != nil {
		t.Fatalf("Partition with k == N: %v", err)
	}

	// Every distinct point becomes its own cluster.
	seen := make(map[int]bool, 6)
	for _, l := range labels {
		if l < 0 || l > 5 {
			t.Fatalf("label %d out of range [0, 6)", l)
		}
		if seen[l] {
			t.Fatalf("label %d assigned twice: %v", l, labels)
		}
		seen[l] = true
	}
}

func TestKMeans_KExceedsN(t *testing.T) {
	t.Parallel()

	km := diar.NewKMeans()
	if _, err := km.Partition(blobs6(), 7, 7); !errors.Is(err, diar.ErrConfig) {
		t.Errorf("k > N: err = %v, want ErrConfig", err)
	}
	if _, err := km.Partition(blobs6(), 0, 7); !errors.Is(err, diar.ErrConfig) {
		t.Errorf("k = 0: err = %v, want ErrConfig", err)
	}
}

func TestKMeans_SingleCluster(t *testing.T) {
	t.Parallel()

	km := diar.NewKMeans(diar.WithNInit(1))
	labels, err := km.Partition(blobs6(), 1, 0)
	if err != nil {
		t.Fatalf("Partition with k = 1: %v", err)
	}
	for i, l := range labels {
		if l != 0 {
			t.Errorf("labels[%d] = %d, want 0", i, l)
		}
	}
}

func TestKMeans_DuplicatePoints(t *testing.T) {
	t.Parallel()

	// Three identical points, k = 2: seeding must terminate even though
	// every candidate coincides with a chosen center.
	points := mat.NewDense(3, 1, []float64{5, 5, 5})
	km := diar.NewKMeans(diar.WithNInit(2))
	labels, err := km.Partition(points, 2, 99)
	if err != nil {
		t.Fatalf("Partition on duplicate points: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("len(labels) = %d, want 3", len(labels))
	}
}
