package automation

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/fepipe/internal/config"
	"github.com/san-kum/fepipe/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of pipeline runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	OutputDir   string         `yaml:"output_dir"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. It starts from a preset (or the defaults)
// and applies the non-zero overrides.
type ScenarioStep struct {
	Preset   string   `yaml:"preset"`
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source"`
	Geometry string   `yaml:"geometry"`
	MeshSize float64  `yaml:"mesh_size"`
	Material string   `yaml:"material"`
	MassKg   *float64 `yaml:"mass_kg"`
	Gravity  *bool    `yaml:"gravity"`
	From     string   `yaml:"from"`
	To       string   `yaml:"to"`
	Fixed    string   `yaml:"fixed"`
	Solve    *bool    `yaml:"solve"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config resolves the step against base, which is not modified.
func (s ScenarioStep) Config(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
		p.OutputDir = base.OutputDir
		p.Solver = base.Solver
		p.Mesher = base.Mesher
		p.Materials = base.Materials
		cfg = *p
	}
	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.Source != "" {
		cfg.Source = s.Source
	}
	if s.Geometry != "" {
		cfg.Geometry = s.Geometry
	}
	if s.MeshSize > 0 {
		cfg.MeshSize = s.MeshSize
	}
	if s.Material != "" {
		cfg.Material = s.Material
	}
	if s.MassKg != nil {
		cfg.Load.MassKg = *s.MassKg
	}
	if s.Gravity != nil {
		cfg.Load.Gravity = *s.Gravity
	}
	if s.From != "" {
		cfg.Load.From = s.From
	}
	if s.To != "" {
		cfg.Load.To = s.To
	}
	if s.Fixed != "" {
		cfg.Fixed = s.Fixed
	}
	if s.Solve != nil {
		cfg.Solve = *s.Solve
	}
	return &cfg, nil
}

// RunScenario executes all steps in order, stopping at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, p *pipeline.Pipeline) ([]*pipeline.Report, error) {
	if scenario.OutputDir != "" {
		b := *base
		b.OutputDir = scenario.OutputDir
		base = &b
	}
	reports := make([]*pipeline.Report, 0, len(scenario.Steps))
	used := make(map[string]bool, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config(base)
		if err != nil {
			return reports, fmt.Errorf("step %d: %w", i+1, err)
		}
		// Steps sharing a name would overwrite each other's deck and meshes.
		if used[cfg.Name] {
			cfg.Name = fmt.Sprintf("%s_%d", cfg.Name, i+1)
		}
		used[cfg.Name] = true

		job, err := pipeline.JobFromConfig(cfg)
		if err != nil {
			return reports, fmt.Errorf("step %d: %w", i+1, err)
		}

		rep, err := p.Run(ctx, job)
		if err != nil {
			return reports, fmt.Errorf("step %d run: %w", i+1, err)
		}
		reports = append(reports, rep)
	}

	return reports, nil
}

// MassSweep runs the same model across a range of load masses.
type MassSweep struct {
	Base     *config.Config
	MassMin  float64
	MassMax  float64
	NumSteps int
}

// SweepResult holds one point of a mass sweep.
type SweepResult struct {
	MassKg          float64
	ForceN          float64
	MaxNode         int
	MaxDisplacement float64
	Report          *pipeline.Report
}

// RunSweep executes a mass sweep. Displacements are only filled in when the
// base configuration solves.
func RunSweep(ctx context.Context, sweep *MassSweep, p *pipeline.Pipeline) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if sweep.MassMax < sweep.MassMin {
		return nil, fmt.Errorf("sweep range is empty: %g > %g", sweep.MassMin, sweep.MassMax)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	massStep := 0.0
	if sweep.NumSteps > 1 {
		massStep = (sweep.MassMax - sweep.MassMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		mass := sweep.MassMin + float64(i)*massStep

		cfg := *sweep.Base
		cfg.Load.MassKg = mass
		cfg.Name = sweep.Base.Name + "_m" + strconv.FormatFloat(mass, 'f', -1, 64)

		job, err := pipeline.JobFromConfig(&cfg)
		if err != nil {
			return nil, err
		}
		rep, err := p.Run(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("sweep %d/%d (mass %g): %w", i+1, sweep.NumSteps, mass, err)
		}

		r := SweepResult{MassKg: mass, ForceN: rep.Force, Report: rep}
		if d, ok := rep.Result.MaxDisplacement(); ok {
			r.MaxNode = d.Node
			r.MaxDisplacement = d.Magnitude()
		}
		results = append(results, r)
	}

	return results, nil
}
