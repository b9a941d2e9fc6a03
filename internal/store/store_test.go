package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/load"
	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/pipeline"
	"github.com/san-kum/fepipe/internal/solver"
)

func testReport(solved bool) *pipeline.Report {
	rep := &pipeline.Report{
		Job:      "block",
		Source:   "block",
		Load:     load.Spec{MassKg: 50, IncludeGravity: true, From: load.ZPos, To: load.ZNeg},
		Force:    490.5,
		Material: deck.Materials["steel"],
		Stats: mesh.Stats{
			Nodes:    27,
			Elements: 8,
			ByKind:   map[mesh.Kind]int{mesh.Hex8: 8},
			Volume:   8,
		},
		DeckPath:   "out/block.inp",
		Fixed:      load.ZNeg,
		FixedNodes: 9,
		LoadNodes:  9,
		Started:    time.Now(),
		Elapsed:    1500 * time.Millisecond,
	}
	if solved {
		rep.Result = &solver.Result{
			Displacements: []solver.Displacement{
				{Node: 1, U: [3]float64{0, 0, -1e-6}},
				{Node: 2, U: [3]float64{3e-7, 0, -4e-6}},
			},
		}
	}
	return rep
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testReport(true))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Job != "block" {
		t.Errorf("expected job 'block', got '%s'", meta.Job)
	}
	if meta.ForceN != 490.5 {
		t.Errorf("expected force 490.5, got %f", meta.ForceN)
	}
	if meta.Elements["hex8"] != 8 {
		t.Errorf("expected 8 hex8 elements, got %v", meta.Elements)
	}
	if !meta.Solved || meta.MaxNode != 2 {
		t.Errorf("expected solved run with max node 2, got %+v", meta)
	}

	disps, err := st.LoadDisplacements(runID)
	if err != nil {
		t.Fatalf("load displacements failed: %v", err)
	}

	if len(disps) != 2 {
		t.Fatalf("expected 2 displacements, got %d", len(disps))
	}
	if disps[1].Node != 2 || disps[1].U[2] != -4e-6 {
		t.Errorf("unexpected displacement %+v", disps[1])
	}
}

func TestStoreUnsolvedRun(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.Save(testReport(false))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err = st.LoadDisplacements(runID)
	if !errors.Is(err, ErrNoDisplacements) {
		t.Errorf("expected ErrNoDisplacements, got %v", err)
	}

	if _, err := st.LoadDisplacements("missing"); err == nil || errors.Is(err, ErrNoDisplacements) {
		t.Errorf("expected not-exist error for unknown run, got %v", err)
	}
}

func TestStoreSave_UnsafeJobName(t *testing.T) {
	st := New(t.TempDir())
	rep := testReport(false)
	rep.Job = "parts/bracket v2"

	runID, err := st.Save(rep)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "parts_bracket_v2_") {
		t.Errorf("unexpected run ID %q", runID)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("expected run %s to be listed, got %+v", runID, runs)
	}
	if runs[0].Job != "parts/bracket v2" {
		t.Errorf("expected original job name in metadata, got %q", runs[0].Job)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first := testReport(false)
	first.Started = time.Now().Add(-time.Hour)
	if _, err := st.Save(first); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second := testReport(true)
	second.Job = "cylinder"
	if _, err := st.Save(second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Job != "block" || runs[1].Job != "cylinder" {
		t.Errorf("runs not ordered by time: %s, %s", runs[0].Job, runs[1].Job)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testReport(true))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "displacements.csv")); os.IsNotExist(err) {
		t.Error("displacements.csv not created")
	}
}

func TestStoreResult(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testReport(true))
	if err != nil {
		t.Fatal(err)
	}
	res, err := st.Result(runID)
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if res.Jobname != "block" || len(res.Displacements) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExportJSON(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	runID, err := st.Save(testReport(true))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "export.json")
	if err := st.ExportJSON(runID, path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if data.ID != runID {
		t.Errorf("expected id %s, got %s", runID, data.ID)
	}
	if len(data.Displacements) != 2 || data.Displacements[1].Magnitude <= 0 {
		t.Errorf("unexpected displacements %+v", data.Displacements)
	}
}

func TestWriteJSON_Unsolved(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testReport(false))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.WriteJSON(runID, &buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"displacements": []`)) {
		t.Errorf("expected empty displacement list, got %s", buf.String())
	}
}
