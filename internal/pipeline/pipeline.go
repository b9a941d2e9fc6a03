package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/geometry"
	"github.com/san-kum/fepipe/internal/load"
	"github.com/san-kum/fepipe/internal/logging"
	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/solver"
	"gonum.org/v1/gonum/spatial/r3"
)

// Report summarizes a finished run.
type Report struct {
	Job        string
	Source     geometry.Source
	Input      string
	Load       load.Spec
	Force      float64
	Material   deck.Material
	Stats      mesh.Stats
	MeshFiles  []string
	DeckPath   string
	Fixed      load.Direction
	FixedNodes int
	LoadNodes  int
	Result     *solver.Result
	ResultVTK  string
	Started    time.Time
	Elapsed    time.Duration
}

// Pipeline turns a Job into meshes, a solver deck and optionally results.
// Mesher is only needed for file geometry; Solver only for solving jobs.
type Pipeline struct {
	Mesher  mesh.Mesher
	Solver  solver.Runner
	Session *Session
	Logger  *zerolog.Logger
}

func New(mesher mesh.Mesher, runner solver.Runner) *Pipeline {
	return &Pipeline{Mesher: mesher, Solver: runner, Session: NewSession()}
}

func (p *Pipeline) log() *zerolog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logging.L()
}

func (p *Pipeline) session() *Session {
	if p.Session == nil {
		p.Session = NewSession()
	}
	return p.Session
}

func (p *Pipeline) fail(job Job, step Step, err error) error {
	p.log().Error().Str("job", job.Name).Str("step", string(step)).Err(err).Msg("pipeline.failed")
	return &StepError{Step: step, Job: job.Name, Wrapped: err}
}

// Mesh runs the load, geometry and export steps only. It accepts surface
// meshes, so STL files can be converted without a mesher.
func (p *Pipeline) Mesh(ctx context.Context, job Job) (*Report, error) {
	rep, _, _, err := p.prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	rep.Elapsed = time.Since(rep.Started)
	p.session().setReport(rep)
	return rep, nil
}

// Run executes the whole job. Any failing step aborts the run and returns
// a *StepError.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Report, error) {
	rep, job, m, err := p.prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	log := p.log().With().Str("job", job.Name).Logger()

	var fixed load.Direction
	if job.Fixed != "" {
		// Already validated in prepare.
		fixed, _ = load.ParseDirection(job.Fixed)
	}
	d, err := deck.Build(deck.Model{
		Name:     job.Name,
		Mesh:     m,
		Material: job.Material,
		Load:     rep.Load,
		Fixed:    fixed,
	})
	if err != nil {
		return nil, p.fail(job, StepDeck, err)
	}
	deckPath := filepath.Join(job.OutputDir, d.Jobname()+".inp")
	if err := d.WriteFile(deckPath); err != nil {
		return nil, p.fail(job, StepDeck, err)
	}
	p.session().setDeck(deckPath)
	rep.DeckPath = deckPath
	rep.Fixed = d.Fixed
	rep.FixedNodes = len(d.FixedNodes)
	rep.LoadNodes = len(d.LoadNodes)
	log.Info().
		Str("step", string(StepDeck)).
		Str("path", deckPath).
		Str("fixed", d.Fixed.String()).
		Int("fixed_nodes", rep.FixedNodes).
		Int("load_nodes", rep.LoadNodes).
		Msg("pipeline.step")

	if job.Solve {
		if p.Solver == nil {
			return nil, p.fail(job, StepSolve, ErrNoSolver)
		}
		res, err := p.Solver.Run(ctx, deckPath)
		if err != nil {
			return nil, p.fail(job, StepSolve, err)
		}
		rep.Result = res
		ev := log.Info().Str("step", string(StepSolve)).Int("nodes", len(res.Displacements)).Dur("elapsed", res.Elapsed)
		if peak, ok := res.MaxDisplacement(); ok {
			ev = ev.Int("max_node", peak.Node).Float64("max_displacement", peak.Magnitude())
		}
		ev.Msg("pipeline.step")

		vtkPath := filepath.Join(job.OutputDir, d.Jobname()+"_result.vtk")
		if err := WriteResultVTK(vtkPath, m, res); err != nil {
			return nil, p.fail(job, StepResults, err)
		}
		rep.ResultVTK = vtkPath
		log.Info().Str("step", string(StepResults)).Str("path", vtkPath).Msg("pipeline.step")
	}

	rep.Elapsed = time.Since(rep.Started)
	p.session().setReport(rep)
	log.Info().Dur("elapsed", rep.Elapsed).Msg("pipeline.done")
	return rep, nil
}

// prepare validates the load, obtains the mesh and writes the requested
// mesh files.
func (p *Pipeline) prepare(ctx context.Context, job Job) (*Report, Job, *mesh.Mesh, error) {
	started := time.Now()
	job, err := job.resolve()
	if err != nil {
		return nil, job, nil, p.fail(job, StepGeometry, err)
	}
	log := p.log().With().Str("job", job.Name).Logger()

	spec, force, err := load.Parse(job.Mass, job.From, job.To, job.Gravity)
	if err != nil {
		return nil, job, nil, p.fail(job, StepLoad, err)
	}
	if job.Fixed != "" {
		if _, err := load.ParseDirection(job.Fixed); err != nil {
			return nil, job, nil, p.fail(job, StepLoad, err)
		}
	}
	log.Info().
		Str("step", string(StepLoad)).
		Float64("mass_kg", spec.MassKg).
		Bool("gravity", spec.IncludeGravity).
		Str("from", spec.From.String()).
		Str("to", spec.To.String()).
		Float64("force_n", force).
		Msg("pipeline.step")

	p.session().Select(job.Path)
	if err := ctx.Err(); err != nil {
		return nil, job, nil, p.fail(job, StepGeometry, err)
	}
	m, err := p.geometry(ctx, job)
	if err != nil {
		return nil, job, nil, p.fail(job, StepGeometry, err)
	}
	p.session().setMesh(m)
	stats := m.Stats()
	log.Info().
		Str("step", string(StepGeometry)).
		Str("source", string(job.Source)).
		Int("nodes", stats.Nodes).
		Int("elements", stats.Elements).
		Msg("pipeline.step")

	rep := &Report{
		Job:      job.Name,
		Source:   job.Source,
		Input:    job.Path,
		Load:     spec,
		Force:    force,
		Material: job.Material,
		Stats:    stats,
		Started:  started,
	}

	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return nil, job, nil, p.fail(job, StepExport, err)
	}
	for _, format := range job.MeshOutputs {
		ext, err := meshExt(format)
		if err != nil {
			return nil, job, nil, p.fail(job, StepExport, err)
		}
		path := filepath.Join(job.OutputDir, job.Name+"."+ext)
		if err := mesh.Save(path, m); err != nil {
			return nil, job, nil, p.fail(job, StepExport, err)
		}
		rep.MeshFiles = append(rep.MeshFiles, path)
		log.Info().Str("step", string(StepExport)).Str("path", path).Msg("pipeline.step")
	}
	return rep, job, m, nil
}

func (p *Pipeline) geometry(ctx context.Context, job Job) (*mesh.Mesh, error) {
	switch job.Source {
	case geometry.SourceBlock:
		return mesh.Block(job.Block.X, job.Block.Y, job.Block.Z, job.MeshSize)
	case geometry.SourceCylinder:
		return mesh.Cylinder(job.Radius, job.Height, job.MeshSize)
	case geometry.SourceSTEP:
		hdr, err := geometry.ReadSTEPHeader(job.Path)
		if err != nil {
			return nil, err
		}
		p.log().Debug().
			Str("schema", hdr.Schema).
			Int("entities", hdr.Entities).
			Bool("solid", hdr.HasSolid()).
			Msg("geometry.step_header")
		if p.Mesher == nil {
			return nil, ErrNoMesher
		}
		return p.Mesher.Mesh(ctx, job.Path)
	case geometry.SourceSTL:
		surf, err := geometry.ReadSTL(job.Path)
		if err != nil {
			return nil, err
		}
		p.log().Debug().
			Int("triangles", len(surf.Triangles)).
			Float64("area", surf.Area()).
			Msg("geometry.stl")
		if p.Mesher != nil {
			return p.Mesher.Mesh(ctx, job.Path)
		}
		return mesh.FromSurface(surf)
	}
	return nil, fmt.Errorf("%w: %q", geometry.ErrUnknownSource, job.Source)
}

// WriteResultVTK writes m with the solver displacements as a point field.
func WriteResultVTK(path string, m *mesh.Mesh, res *solver.Result) error {
	field := mesh.PointField{Name: "displacement", Vectors: make(map[int]r3.Vec, len(res.Displacements))}
	for _, d := range res.Displacements {
		field.Vectors[d.Node] = r3.Vec{X: d.U[0], Y: d.U[1], Z: d.U[2]}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mesh.WriteVTK(f, m, filepath.Base(path), field); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
