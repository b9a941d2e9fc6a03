package plot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/solver"
)

func sampleResult() *solver.Result {
	return &solver.Result{
		Jobname: "block",
		Displacements: []solver.Displacement{
			{Node: 1, U: [3]float64{0, 0, 0}},
			{Node: 2, U: [3]float64{0, 0, -1e-6}},
			{Node: 3, U: [3]float64{0, 0, -2e-6}},
			{Node: 4, U: [3]float64{0, 1e-7, -3e-6}},
		},
	}
}

func TestASCII(t *testing.T) {
	out, err := ASCII(sampleResult(), 40, 5)
	if err != nil {
		t.Fatalf("ASCII failed: %v", err)
	}
	if !strings.Contains(out, "block: |u| per node (4 nodes)") {
		t.Errorf("missing caption in %q", out)
	}

	if _, err := ASCII(&solver.Result{}, 0, 0); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestMagnitudes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plots", "mag.svg")
	if err := Magnitudes(sampleResult(), path); err != nil {
		t.Fatalf("Magnitudes failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output file: %v", err)
	}

	noExt := filepath.Join(dir, "mag")
	if err := Magnitudes(sampleResult(), noExt); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(noExt + ".png"); err != nil {
		t.Errorf("expected .png appended: %v", err)
	}
}

func TestProfile(t *testing.T) {
	m, err := mesh.Block(1, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "profile.png")
	if err := Profile(sampleResult(), m, 2, path); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output file: %v", err)
	}

	if err := Profile(sampleResult(), m, 3, path); err == nil {
		t.Error("expected error for invalid axis")
	}
	if err := Profile(sampleResult(), nil, 0, path); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
