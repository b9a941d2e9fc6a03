package store

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/san-kum/fepipe/internal/solver"
)

type ExportData struct {
	RunMetadata
	Displacements []ExportDisplacement `json:"displacements"`
}

type ExportDisplacement struct {
	Node      int        `json:"node"`
	U         [3]float64 `json:"u"`
	Magnitude float64    `json:"magnitude"`
}

func (s *Store) exportData(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{RunMetadata: *meta, Displacements: []ExportDisplacement{}}

	disps, err := s.LoadDisplacements(runID)
	if err != nil && !errors.Is(err, ErrNoDisplacements) {
		return nil, err
	}
	for _, d := range disps {
		data.Displacements = append(data.Displacements, exportDisplacement(d))
	}
	return data, nil
}

func exportDisplacement(d solver.Displacement) ExportDisplacement {
	return ExportDisplacement{Node: d.Node, U: d.U, Magnitude: d.Magnitude()}
}

// ExportJSON writes a run with its displacements to path.
func (s *Store) ExportJSON(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteJSON(runID, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteJSON writes a run with its displacements to w, e.g. os.Stdout.
func (s *Store) WriteJSON(runID string, w io.Writer) error {
	data, err := s.exportData(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
