package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fepipe/internal/config"
	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/geometry"
	"github.com/san-kum/fepipe/internal/load"
	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/pipeline"
	"github.com/san-kum/fepipe/internal/solver"
)

type fakeMesher struct {
	calls []string
	err   error
}

func (f *fakeMesher) Mesh(ctx context.Context, path string) (*mesh.Mesh, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return nil, f.err
	}
	return mesh.Block(1, 1, 1, 0.5)
}

type fakeRunner struct {
	decks []string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, deckPath string) (*solver.Result, error) {
	f.decks = append(f.decks, deckPath)
	if f.err != nil {
		return nil, f.err
	}
	return &solver.Result{
		Jobname: "fake",
		Displacements: []solver.Displacement{
			{Node: 1, U: [3]float64{0, 0, -1e-6}},
			{Node: 2, U: [3]float64{0, 0, -3e-6}},
		},
	}, nil
}

const stepFile = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('part.step','2024-01-01',(''),(''),'','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=MANIFOLD_SOLID_BREP('',#3);
ENDSEC;
END-ISO-10303-21;
`

func writeTetSTL(path string) {
	a := r3.Vec{}
	b := r3.Vec{X: 1}
	c := r3.Vec{Y: 1}
	d := r3.Vec{Z: 1}
	s := &geometry.Surface{
		Name: "tet",
		Triangles: []geometry.Triangle{
			{V: [3]r3.Vec{a, c, b}},
			{V: [3]r3.Vec{a, b, d}},
			{V: [3]r3.Vec{a, d, c}},
			{V: [3]r3.Vec{b, c, d}},
		},
	}
	Expect(geometry.WriteSTL(path, s)).To(Succeed())
}

var _ = Describe("Pipeline", func() {
	var (
		dir    string
		ctx    context.Context
		runner *fakeRunner
		mesher *fakeMesher
		p      *pipeline.Pipeline
		job    pipeline.Job
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		ctx = context.Background()
		runner = &fakeRunner{}
		mesher = &fakeMesher{}
		p = pipeline.New(nil, runner)
		nop := zerolog.Nop()
		p.Logger = &nop
		job = pipeline.Job{
			Name:      "block",
			Source:    geometry.SourceBlock,
			Block:     pipeline.Dims{X: 2, Y: 2, Z: 2},
			MeshSize:  1,
			Material:  deck.Materials["steel"],
			Mass:      "50",
			From:      "z+",
			To:        "z-",
			Gravity:   true,
			OutputDir: dir,
		}
	})

	Describe("Run", func() {
		It("writes a deck for a generated block", func() {
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Force).To(BeNumerically("~", 490.5, 1e-9))
			Expect(rep.DeckPath).To(Equal(filepath.Join(dir, "block.inp")))
			Expect(rep.DeckPath).To(BeAnExistingFile())
			Expect(rep.Fixed).To(Equal(load.ZNeg))
			Expect(rep.FixedNodes).To(Equal(9))
			Expect(rep.LoadNodes).To(Equal(9))
			Expect(rep.Stats.Elements).To(Equal(8))
			Expect(rep.Result).To(BeNil())
			Expect(runner.decks).To(BeEmpty())

			data, err := os.ReadFile(rep.DeckPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("*CLOAD"))
		})

		It("records the run in the session", func() {
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Session.Mesh()).NotTo(BeNil())
			Expect(p.Session.DeckPath()).To(Equal(rep.DeckPath))
			Expect(p.Session.Last()).To(BeIdenticalTo(rep))
		})

		It("writes requested mesh files", func() {
			job.MeshOutputs = []string{"msh", ".VTK"}
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.MeshFiles).To(ConsistOf(
				filepath.Join(dir, "block.msh"),
				filepath.Join(dir, "block.vtk"),
			))
			for _, f := range rep.MeshFiles {
				Expect(f).To(BeAnExistingFile())
			}
		})

		It("rejects unknown mesh formats", func() {
			job.MeshOutputs = []string{"obj"}
			_, err := p.Run(ctx, job)
			step, ok := pipeline.FailedStep(err)
			Expect(ok).To(BeTrue())
			Expect(step).To(Equal(pipeline.StepExport))
		})

		It("fails at the load step for bad input", func() {
			job.From = "north"
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(load.ErrInvalidInput))
			Expect(err.Error()).To(ContainSubstring("north"))
			step, _ := pipeline.FailedStep(err)
			Expect(step).To(Equal(pipeline.StepLoad))
			Expect(p.Session.Mesh()).To(BeNil())
		})

		It("rejects negative mass before meshing", func() {
			job.Mass = "-1"
			job.Source = geometry.SourceSTEP
			job.Path = filepath.Join(dir, "missing.step")
			p.Mesher = mesher
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(load.ErrInvalidInput))
			Expect(mesher.calls).To(BeEmpty())
		})

		It("rejects a fixed face equal to the loaded face", func() {
			job.Fixed = "z+"
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(deck.ErrSameFace))
			step, _ := pipeline.FailedStep(err)
			Expect(step).To(Equal(pipeline.StepDeck))
		})

		It("solves and writes a result field", func() {
			job.Solve = true
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.decks).To(ConsistOf(rep.DeckPath))
			Expect(rep.Result.Displacements).To(HaveLen(2))
			Expect(rep.ResultVTK).To(Equal(filepath.Join(dir, "block_result.vtk")))

			data, err := os.ReadFile(rep.ResultVTK)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("VECTORS displacement double"))
		})

		It("wraps solver failures", func() {
			job.Solve = true
			runner.err = solver.ErrTimeout
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(solver.ErrTimeout))
			step, _ := pipeline.FailedStep(err)
			Expect(step).To(Equal(pipeline.StepSolve))
		})

		It("requires a solver when solving", func() {
			p.Solver = nil
			job.Solve = true
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(pipeline.ErrNoSolver))
		})

		It("meshes a cylinder", func() {
			job = pipeline.Job{
				Source:    geometry.SourceCylinder,
				Radius:    0.5,
				Height:    2,
				MeshSize:  0.25,
				Material:  deck.Materials["carbon_fiber"],
				Mass:      "500",
				From:      "z+",
				To:        "z-",
				Gravity:   true,
				OutputDir: dir,
			}
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Job).To(Equal("cylinder"))
			Expect(rep.Stats.ByKind[mesh.Wedge6]).To(BeNumerically(">", 0))
			Expect(rep.Stats.ByKind[mesh.Hex8]).To(BeNumerically(">", 0))
		})
	})

	Describe("file geometry", func() {
		It("meshes STL without a mesher but cannot build a deck", func() {
			path := filepath.Join(dir, "tet.stl")
			writeTetSTL(path)
			job.Source = ""
			job.Name = ""
			job.Path = path
			job.MeshOutputs = []string{"msh"}

			rep, err := p.Mesh(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Source).To(Equal(geometry.SourceSTL))
			Expect(rep.Stats.ByKind[mesh.Tri3]).To(Equal(4))
			Expect(filepath.Join(dir, "tet.msh")).To(BeAnExistingFile())

			_, err = p.Run(ctx, job)
			Expect(err).To(MatchError(pipeline.ErrNotSolid))
			step, _ := pipeline.FailedStep(err)
			Expect(step).To(Equal(pipeline.StepDeck))
		})

		It("hands STL to the mesher when configured", func() {
			path := filepath.Join(dir, "tet.stl")
			writeTetSTL(path)
			p.Mesher = mesher
			job.Source = geometry.SourceSTL
			job.Path = path

			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(mesher.calls).To(ConsistOf(path))
			Expect(rep.DeckPath).To(BeAnExistingFile())
		})

		It("requires a mesher for STEP", func() {
			path := filepath.Join(dir, "part.step")
			Expect(os.WriteFile(path, []byte(stepFile), 0644)).To(Succeed())
			job.Source = geometry.SourceSTEP
			job.Path = path

			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(pipeline.ErrNoMesher))

			p.Mesher = mesher
			rep, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Input).To(Equal(path))
		})

		It("reports malformed STEP files", func() {
			path := filepath.Join(dir, "bad.step")
			Expect(os.WriteFile(path, []byte("solid nope\n"), 0644)).To(Succeed())
			p.Mesher = mesher
			job.Source = geometry.SourceSTEP
			job.Path = path

			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(geometry.ErrMalformed))
			Expect(mesher.calls).To(BeEmpty())
		})

		It("reports a missing selection", func() {
			job.Source = geometry.SourceSTL
			job.Path = ""
			_, err := p.Run(ctx, job)
			Expect(err).To(MatchError(geometry.ErrNoFile))
		})

		It("propagates mesher errors", func() {
			path := filepath.Join(dir, "part.step")
			Expect(os.WriteFile(path, []byte(stepFile), 0644)).To(Succeed())
			mesher.err = errors.New("gmsh exploded")
			p.Mesher = mesher
			job.Source = geometry.SourceSTEP
			job.Path = path

			_, err := p.Run(ctx, job)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("gmsh exploded"))
		})
	})

	Describe("Session", func() {
		It("clears derived state on a new selection", func() {
			_, err := p.Run(ctx, job)
			Expect(err).NotTo(HaveOccurred())

			p.Session.Select("other.stl")
			Expect(p.Session.Path()).To(Equal("other.stl"))
			Expect(p.Session.Mesh()).To(BeNil())
			Expect(p.Session.DeckPath()).To(BeEmpty())
			Expect(p.Session.Last()).To(BeNil())
		})
	})

	Describe("JobFromConfig", func() {
		It("builds a job from a preset", func() {
			cfg := config.GetPreset("cylinder")
			cfg.OutputDir = dir
			j, err := pipeline.JobFromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(j.Source).To(Equal(geometry.SourceCylinder))
			Expect(j.Material.Name).To(Equal("carbon_fiber"))
			Expect(j.Mass).To(Equal("500"))
			Expect(j.Radius).To(Equal(0.5))

			rep, err := p.Run(ctx, j)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.HasSuffix(rep.DeckPath, "cylinder_with_load.inp")).To(BeTrue())
		})

		It("infers the source from the geometry path", func() {
			cfg := config.DefaultConfig()
			cfg.Source = ""
			cfg.Geometry = "part.STP"
			j, err := pipeline.JobFromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(j.Source).To(Equal(geometry.SourceSTEP))
		})

		It("rejects unknown materials", func() {
			cfg := config.DefaultConfig()
			cfg.Material = "cheese"
			_, err := pipeline.JobFromConfig(cfg)
			Expect(err).To(HaveOccurred())
		})
	})
})
