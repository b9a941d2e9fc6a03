package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/fepipe/internal/config"
	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/geometry"
)

// Dims are the edge lengths of a block, corner at the origin.
type Dims struct {
	X, Y, Z float64
}

// Job is one parameterized pipeline run. Load fields hold raw user input
// and are validated at the start of the run.
type Job struct {
	Name     string
	Source   geometry.Source
	Path     string
	Block    Dims
	Radius   float64
	Height   float64
	MeshSize float64
	Material deck.Material

	Mass    string
	From    string
	To      string
	Gravity bool
	// Fixed is the clamped face; empty means opposite the loaded face.
	Fixed string

	OutputDir   string
	MeshOutputs []string
	Solve       bool
}

// JobFromConfig builds a job from a resolved configuration.
func JobFromConfig(cfg *config.Config) (Job, error) {
	if err := cfg.Validate(); err != nil {
		return Job{}, err
	}
	mat, err := cfg.GetMaterial()
	if err != nil {
		return Job{}, err
	}

	var src geometry.Source
	if cfg.Source != "" {
		src, err = geometry.ParseSource(cfg.Source)
	} else {
		src, err = geometry.SourceFromPath(cfg.Geometry)
	}
	if err != nil {
		return Job{}, err
	}

	return Job{
		Name:        cfg.Name,
		Source:      src,
		Path:        cfg.Geometry,
		Block:       Dims{X: cfg.Block.X, Y: cfg.Block.Y, Z: cfg.Block.Z},
		Radius:      cfg.Cylinder.Radius,
		Height:      cfg.Cylinder.Height,
		MeshSize:    cfg.MeshSize,
		Material:    mat,
		Mass:        cfg.Load.Mass(),
		From:        cfg.Load.From,
		To:          cfg.Load.To,
		Gravity:     cfg.Load.Gravity,
		Fixed:       cfg.Fixed,
		OutputDir:   cfg.OutputDir,
		MeshOutputs: cfg.MeshOutputs,
		Solve:       cfg.Solve,
	}, nil
}

// resolve fills defaults derived from other fields.
func (j Job) resolve() (Job, error) {
	if j.Source == "" {
		src, err := geometry.SourceFromPath(j.Path)
		if err != nil {
			return j, err
		}
		j.Source = src
	}
	if j.Source.FromFile() && strings.TrimSpace(j.Path) == "" {
		return j, geometry.ErrNoFile
	}
	if j.Name == "" {
		if j.Path != "" {
			j.Name = strings.TrimSuffix(filepath.Base(j.Path), filepath.Ext(j.Path))
		} else {
			j.Name = string(j.Source)
		}
	}
	if j.OutputDir == "" {
		j.OutputDir = "."
	}
	if j.MeshSize <= 0 && !j.Source.FromFile() {
		return j, fmt.Errorf("pipeline: mesh size must be positive, got %g", j.MeshSize)
	}
	return j, nil
}

// meshExt normalizes a mesh output format such as ".VTK" to "vtk".
func meshExt(format string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch ext {
	case "msh", "vtk":
		return ext, nil
	}
	return "", fmt.Errorf("pipeline: unsupported mesh output %q (want msh or vtk)", format)
}
