package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/pipeline"
	"github.com/san-kum/fepipe/internal/solver"
)

// ErrNoDisplacements indicates a run that was not solved.
var ErrNoDisplacements = errors.New("store: run has no displacements")

const (
	metadataFile      = "metadata.json"
	displacementsFile = "displacements.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string         `json:"id"`
	Job        string         `json:"job"`
	Source     string         `json:"source"`
	Input      string         `json:"input,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Material   string         `json:"material"`
	MassKg     float64        `json:"mass_kg"`
	Gravity    bool           `json:"gravity"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Fixed      string         `json:"fixed,omitempty"`
	ForceN     float64        `json:"force_n"`
	Nodes      int            `json:"nodes"`
	Elements   map[string]int `json:"elements"`
	Volume     float64        `json:"volume"`
	FixedNodes int            `json:"fixed_nodes"`
	LoadNodes  int            `json:"load_nodes"`
	MeshFiles  []string       `json:"mesh_files,omitempty"`
	DeckPath   string         `json:"deck,omitempty"`
	ResultVTK  string         `json:"result_vtk,omitempty"`
	Solved     bool           `json:"solved"`
	MaxNode    int            `json:"max_node,omitempty"`
	MaxDisp    float64        `json:"max_displacement,omitempty"`
	Elapsed    float64        `json:"elapsed_s"`
}

// Metadata flattens a report into its stored form.
func Metadata(id string, rep *pipeline.Report) RunMetadata {
	meta := RunMetadata{
		ID:         id,
		Job:        rep.Job,
		Source:     string(rep.Source),
		Input:      rep.Input,
		Timestamp:  rep.Started,
		Material:   rep.Material.Name,
		MassKg:     rep.Load.MassKg,
		Gravity:    rep.Load.IncludeGravity,
		From:       rep.Load.From.String(),
		To:         rep.Load.To.String(),
		Fixed:      rep.Fixed.String(),
		ForceN:     rep.Force,
		Nodes:      rep.Stats.Nodes,
		Elements:   make(map[string]int, len(rep.Stats.ByKind)),
		Volume:     rep.Stats.Volume,
		FixedNodes: rep.FixedNodes,
		LoadNodes:  rep.LoadNodes,
		MeshFiles:  rep.MeshFiles,
		DeckPath:   rep.DeckPath,
		ResultVTK:  rep.ResultVTK,
		Elapsed:    rep.Elapsed.Seconds(),
	}
	for k, n := range rep.Stats.ByKind {
		meta.Elements[k.String()] = n
	}
	if rep.Result != nil {
		meta.Solved = true
		if d, ok := rep.Result.MaxDisplacement(); ok {
			meta.MaxNode = d.Node
			meta.MaxDisp = d.Magnitude()
		}
	}
	return meta
}

// Save stores a report under a new run directory and returns its ID.
func (s *Store) Save(rep *pipeline.Report) (string, error) {
	ts := rep.Started
	if ts.IsZero() {
		ts = time.Now()
	}
	runID := fmt.Sprintf("%s_%d", deck.SafeName(rep.Job), ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := Metadata(runID, rep)
	meta.Timestamp = ts

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if rep.Result == nil {
		return runID, nil
	}

	csvFile, err := os.Create(filepath.Join(runDir, displacementsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"node", "ux", "uy", "uz", "magnitude"}); err != nil {
		return "", err
	}
	for _, d := range rep.Result.Displacements {
		row := []string{
			strconv.Itoa(d.Node),
			strconv.FormatFloat(d.U[0], 'e', 6, 64),
			strconv.FormatFloat(d.U[1], 'e', 6, 64),
			strconv.FormatFloat(d.U[2], 'e', 6, 64),
			strconv.FormatFloat(d.Magnitude(), 'e', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadDisplacements(runID string) ([]solver.Displacement, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, displacementsFile))
	if err != nil {
		if os.IsNotExist(err) {
			if _, merr := s.Load(runID); merr == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoDisplacements, runID)
			}
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	disps := make([]solver.Displacement, 0, len(records))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 4 {
			continue
		}
		node, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		d := solver.Displacement{Node: node}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("store: %s row %d: %w", displacementsFile, i, err)
			}
			d.U[j] = v
		}
		disps = append(disps, d)
	}
	return disps, nil
}

// Result rebuilds a solver result for plotting.
func (s *Store) Result(runID string) (*solver.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	disps, err := s.LoadDisplacements(runID)
	if err != nil {
		return nil, err
	}
	return &solver.Result{Jobname: meta.Job, Displacements: disps}, nil
}
