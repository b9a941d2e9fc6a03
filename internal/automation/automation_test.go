package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/fepipe/internal/config"
	"github.com/san-kum/fepipe/internal/pipeline"
	"github.com/san-kum/fepipe/internal/solver"
)

type scaledRunner struct{ runs int }

// Run reports a displacement that grows with each call.
func (r *scaledRunner) Run(ctx context.Context, deckPath string) (*solver.Result, error) {
	r.runs++
	return &solver.Result{Displacements: []solver.Displacement{
		{Node: 7, U: [3]float64{0, 0, -float64(r.runs) * 1e-6}},
	}}, nil
}

func quietPipeline(runner solver.Runner) *pipeline.Pipeline {
	p := pipeline.New(nil, runner)
	nop := zerolog.Nop()
	p.Logger = &nop
	return p
}

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := `
name: loads
steps:
  - preset: block
    mass_kg: 10
  - preset: shear
    gravity: false
    to: y-
`
	g.Expect(os.WriteFile(path, []byte(data), 0644)).To(Succeed())

	sc, err := LoadScenario(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sc.Steps).To(HaveLen(2))
	g.Expect(*sc.Steps[0].MassKg).To(Equal(10.0))
	g.Expect(*sc.Steps[1].Gravity).To(BeFalse())
	g.Expect(sc.Steps[1].MassKg).To(BeNil())
}

func TestLoadScenario_Empty(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	g.Expect(os.WriteFile(path, []byte("name: nothing\n"), 0644)).To(Succeed())

	_, err := LoadScenario(path)
	g.Expect(err).To(HaveOccurred())
}

func TestStepConfig(t *testing.T) {
	g := NewWithT(t)
	base := config.DefaultConfig()
	base.OutputDir = "runs"
	mass := 5.0

	cfg, err := ScenarioStep{Preset: "cylinder", MassKg: &mass, To: "x+"}.Config(base)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Source).To(Equal("cylinder"))
	g.Expect(cfg.OutputDir).To(Equal("runs"))
	g.Expect(cfg.Load.MassKg).To(Equal(5.0))
	g.Expect(cfg.Load.To).To(Equal("x+"))
	g.Expect(cfg.Load.From).To(Equal("z+"))
	g.Expect(base.Load.MassKg).To(Equal(0.0))

	_, err = ScenarioStep{Preset: "nope"}.Config(base)
	g.Expect(err).To(MatchError(ContainSubstring("unknown preset")))
}

func TestRunScenario(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	base := config.DefaultConfig()
	solve := true
	sc := &Scenario{
		OutputDir: dir,
		Steps: []ScenarioStep{
			{Name: "small", MeshSize: 5, Solve: &solve},
			{Preset: "shear"},
		},
	}
	runner := &scaledRunner{}

	reports, err := RunScenario(context.Background(), sc, base, quietPipeline(runner))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports).To(HaveLen(2))
	g.Expect(runner.runs).To(Equal(1))
	g.Expect(reports[0].DeckPath).To(Equal(filepath.Join(dir, "small.inp")))
	g.Expect(reports[1].Job).To(Equal("shear_block"))
	g.Expect(reports[1].Result).To(BeNil())
}

func TestRunScenario_RepeatedNames(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	light, heavy := 10.0, 20.0
	sc := &Scenario{
		OutputDir: dir,
		Steps: []ScenarioStep{
			{Preset: "block", MassKg: &light, MeshSize: 5},
			{Preset: "block", MassKg: &heavy, MeshSize: 5},
		},
	}

	reports, err := RunScenario(context.Background(), sc, config.DefaultConfig(), quietPipeline(nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports).To(HaveLen(2))
	g.Expect(reports[0].DeckPath).To(Equal(filepath.Join(dir, "example.inp")))
	g.Expect(reports[1].DeckPath).To(Equal(filepath.Join(dir, "example_2.inp")))
	g.Expect(reports[0].Force).To(BeNumerically("~", 98.1, 1e-9))
	g.Expect(reports[1].Force).To(BeNumerically("~", 196.2, 1e-9))
}

func TestRunScenario_StopsOnFailure(t *testing.T) {
	g := NewWithT(t)
	sc := &Scenario{
		OutputDir: t.TempDir(),
		Steps: []ScenarioStep{
			{Name: "ok", MeshSize: 5},
			{Name: "bad", From: "up"},
			{Name: "never", MeshSize: 5},
		},
	}

	reports, err := RunScenario(context.Background(), sc, config.DefaultConfig(), quietPipeline(nil))
	g.Expect(err).To(MatchError(ContainSubstring("step 2")))
	g.Expect(reports).To(HaveLen(1))
}

func TestRunSweep(t *testing.T) {
	g := NewWithT(t)
	base := config.DefaultConfig()
	base.OutputDir = t.TempDir()
	base.MeshSize = 5
	base.Solve = true
	runner := &scaledRunner{}

	results, err := RunSweep(context.Background(), &MassSweep{
		Base: base, MassMin: 10, MassMax: 30, NumSteps: 3,
	}, quietPipeline(runner))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))
	g.Expect(results[1].MassKg).To(Equal(20.0))
	g.Expect(results[1].ForceN).To(BeNumerically("~", 196.2, 1e-9))
	g.Expect(results[2].MaxNode).To(Equal(7))
	g.Expect(results[2].MaxDisplacement).To(BeNumerically("~", 3e-6, 1e-15))
}

func TestRunSweep_BadRange(t *testing.T) {
	g := NewWithT(t)
	_, err := RunSweep(context.Background(), &MassSweep{
		Base: config.DefaultConfig(), MassMin: 5, MassMax: 1, NumSteps: 2,
	}, quietPipeline(nil))
	g.Expect(err).To(HaveOccurred())

	_, err = RunSweep(context.Background(), &MassSweep{
		Base: config.DefaultConfig(), NumSteps: 0,
	}, quietPipeline(nil))
	g.Expect(err).To(HaveOccurred())
}
