package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fepipe/internal/automation"
	"github.com/san-kum/fepipe/internal/config"
	"github.com/san-kum/fepipe/internal/deck"
	"github.com/san-kum/fepipe/internal/form"
	"github.com/san-kum/fepipe/internal/load"
	"github.com/san-kum/fepipe/internal/logging"
	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/pipeline"
	"github.com/san-kum/fepipe/internal/plot"
	"github.com/san-kum/fepipe/internal/solver"
	"github.com/san-kum/fepipe/internal/store"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logJSON    bool

	name        string
	source      string
	geomPath    string
	blockX      float64
	blockY      float64
	blockZ      float64
	radius      float64
	height      float64
	meshSize    float64
	material    string
	mass        float64
	massRaw     string
	from        string
	to          string
	gravity     bool
	fixed       string
	outputDir   string
	meshOutputs []string
	solve       bool
	ccxBinary   string
	gmshBinary  string
	timeout     time.Duration
	threads     int
	noSave      bool

	plotOut  string
	plotAxis string

	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	exportOut  string
)

var (
	title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	label = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	bad   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fepipe",
		Short:         "geometry to CalculiX pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{Level: logLevel, JSON: logJSON})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fepipe", "run history directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "mesh, write deck and optionally solve",
		RunE:  runPipeline,
	}
	addJobFlags(runCmd)
	runCmd.Flags().BoolVar(&solve, "solve", false, "run the solver on the written deck")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "mesh and write the solver deck without solving",
		RunE:  writeDeck,
	}
	addJobFlags(deckCmd)

	meshCmd := &cobra.Command{
		Use:   "mesh",
		Short: "mesh geometry and export mesh files",
		RunE:  meshOnly,
	}
	addJobFlags(meshCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "validate a load and print the resulting force",
		RunE:  validateLoad,
	}
	validateCmd.Flags().StringVar(&massRaw, "mass", "", "load mass (kg)")
	validateCmd.Flags().StringVar(&from, "from", "z+", "loaded face (x+, x-, y+, y-, z+, z-)")
	validateCmd.Flags().StringVar(&to, "to", "z-", "force direction")
	validateCmd.Flags().BoolVar(&gravity, "gravity", true, "multiply the mass by g")

	solveCmd := &cobra.Command{
		Use:   "solve [deck.inp]",
		Short: "run the solver on an existing deck",
		Args:  cobra.ExactArgs(1),
		RunE:  solveDeck,
	}
	solveCmd.Flags().StringVar(&ccxBinary, "ccx", "ccx", "CalculiX binary")
	solveCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultSolverTimeout, "solver time limit (0 for none)")
	solveCmd.Flags().IntVar(&threads, "threads", 0, "solver threads (0 for default)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run displacements",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "", "write an image (.png, .svg, .pdf) instead of a terminal chart")
	plotCmd.Flags().StringVar(&plotAxis, "axis", "", "plot against node coordinate x, y or z (needs a saved .msh)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOURCE\tMATERIAL\tMESH\tLOAD")
			for _, n := range config.ListPresets() {
				p := config.GetPreset(n)
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g kg %s->%s\n",
					n, p.Source, p.Material, p.MeshSize, p.Load.MassKg, p.Load.From, p.Load.To)
			}
			return w.Flush()
		},
	}

	materialsCmd := &cobra.Command{
		Use:   "materials",
		Short: "list built-in materials",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tE (Pa)\tNU\tRHO (kg/m3)")
			for _, n := range deck.ListMaterials() {
				m := deck.Materials[n]
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\n", m.Name, m.YoungModulus, m.Poisson, m.Density)
			}
			return w.Flush()
		},
	}

	formCmd := &cobra.Command{
		Use:   "form",
		Short: "enter the load interactively, then run",
		RunE:  runForm,
	}
	addJobFlags(formCmd)
	formCmd.Flags().BoolVar(&solve, "solve", false, "run the solver on the written deck")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scenario of jobs",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addJobFlags(batchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one model across a range of load masses",
		RunE:  runSweep,
	}
	addJobFlags(sweepCmd)
	sweepCmd.Flags().BoolVar(&solve, "solve", false, "run the solver for each mass")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "smallest mass (kg)")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 100, "largest mass (kg)")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of masses")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("fepipe", version)
		},
	}

	rootCmd.AddCommand(runCmd, deckCmd, meshCmd, validateCmd, solveCmd, listCmd, showCmd, plotCmd,
		exportCmd, presetsCmd, materialsCmd, formCmd, batchCmd, sweepCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&mass, "mass", 0, "load mass (kg)")
	cmd.Flags().StringVar(&from, "from", "z+", "loaded face (x+, x-, y+, y-, z+, z-)")
	cmd.Flags().StringVar(&to, "to", "z-", "force direction")
	cmd.Flags().BoolVar(&gravity, "gravity", true, "multiply the mass by g")
}

func addJobFlags(cmd *cobra.Command) {
	addLoadFlags(cmd)
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&source, "source", "", "geometry source (step, stl, block, cylinder)")
	cmd.Flags().StringVarP(&geomPath, "geometry", "g", "", "STEP or STL file")
	cmd.Flags().Float64Var(&blockX, "dx", config.DefaultBlockSize, "block size along x")
	cmd.Flags().Float64Var(&blockY, "dy", config.DefaultBlockSize, "block size along y")
	cmd.Flags().Float64Var(&blockZ, "dz", config.DefaultBlockSize, "block size along z")
	cmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "cylinder radius")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "cylinder height")
	cmd.Flags().Float64Var(&meshSize, "mesh-size", config.DefaultMeshSize, "target element size")
	cmd.Flags().StringVar(&material, "material", config.DefaultMaterial, "material name")
	cmd.Flags().StringVar(&fixed, "fixed", "", "clamped face (default opposite the loaded face)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", config.DefaultOutputDir, "output directory")
	cmd.Flags().StringSliceVar(&meshOutputs, "mesh-output", nil, "mesh files to write (msh, vtk)")
	cmd.Flags().StringVar(&ccxBinary, "ccx", "ccx", "CalculiX binary")
	cmd.Flags().StringVar(&gmshBinary, "gmsh", "gmsh", "gmsh binary; when missing or empty, STL files get a surface mesh only")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultSolverTimeout, "solver time limit (0 for none)")
	cmd.Flags().IntVar(&threads, "threads", 0, "solver threads (0 for default)")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			logging.Setup(logging.Config{Level: cfg.LogLevel, JSON: logJSON})
		}
	}

	f := cmd.Flags()
	if f.Changed("name") {
		cfg.Name = name
	}
	if f.Changed("geometry") {
		cfg.Geometry = geomPath
		if !f.Changed("source") {
			cfg.Source = ""
		}
	}
	if f.Changed("source") {
		cfg.Source = source
	}
	if f.Changed("dx") {
		cfg.Block.X = blockX
	}
	if f.Changed("dy") {
		cfg.Block.Y = blockY
	}
	if f.Changed("dz") {
		cfg.Block.Z = blockZ
	}
	if f.Changed("radius") {
		cfg.Cylinder.Radius = radius
	}
	if f.Changed("height") {
		cfg.Cylinder.Height = height
	}
	if f.Changed("mesh-size") {
		cfg.MeshSize = meshSize
	}
	if f.Changed("material") {
		cfg.Material = material
	}
	if f.Changed("mass") {
		cfg.Load.MassKg = mass
	}
	if f.Changed("from") {
		cfg.Load.From = from
	}
	if f.Changed("to") {
		cfg.Load.To = to
	}
	if f.Changed("gravity") {
		cfg.Load.Gravity = gravity
	}
	if f.Changed("fixed") {
		cfg.Fixed = fixed
	}
	if f.Changed("out") {
		cfg.OutputDir = outputDir
	}
	if f.Changed("mesh-output") {
		cfg.MeshOutputs = meshOutputs
	}
	if f.Changed("solve") {
		cfg.Solve = solve
	}
	if f.Changed("ccx") {
		cfg.Solver.Binary = ccxBinary
	}
	if f.Changed("gmsh") {
		cfg.Mesher.Binary = gmshBinary
	}
	if f.Changed("timeout") {
		cfg.Solver.Timeout = timeout
	}
	if f.Changed("threads") {
		cfg.Solver.Threads = threads
	}
	return cfg, cfg.Validate()
}

func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	var mesher mesh.Mesher
	if g, ok := mesh.LookupGmsh(cfg.Mesher.Binary, cfg.MeshSize); ok {
		mesher = g
	} else if cfg.Mesher.Binary != "" {
		logging.L().Warn().Str("binary", cfg.Mesher.Binary).Msg("mesher not found, STL files get a surface mesh only")
	}
	ccx := solver.NewCCX(cfg.Solver.Binary, cfg.Solver.Timeout)
	ccx.Threads = cfg.Solver.Threads
	return pipeline.New(mesher, ccx)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func execute(cmd *cobra.Command, override func(*config.Config)) (*pipeline.Report, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	job, err := pipeline.JobFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := newPipeline(cfg)
	rep, err := p.Run(ctx, job)
	if err != nil {
		return nil, err
	}
	printReport(rep)
	return rep, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	rep, err := execute(cmd, nil)
	if err != nil {
		return err
	}
	return record(rep)
}

func writeDeck(cmd *cobra.Command, args []string) error {
	_, err := execute(cmd, func(cfg *config.Config) { cfg.Solve = false })
	return err
}

func record(rep *pipeline.Report) error {
	if noSave {
		return nil
	}
	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(rep)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func meshOnly(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.MeshOutputs) == 0 {
		cfg.MeshOutputs = []string{"msh"}
	}
	job, err := pipeline.JobFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	rep, err := newPipeline(cfg).Mesh(ctx, job)
	if err != nil {
		return err
	}
	printStats(rep.Stats)
	for _, f := range rep.MeshFiles {
		fmt.Printf("wrote %s\n", f)
	}
	return nil
}

func validateLoad(cmd *cobra.Command, args []string) error {
	spec, force, err := load.Parse(massRaw, from, to, gravity)
	if err != nil {
		return err
	}
	v := spec.Vector()
	fmt.Printf("%s %g kg, gravity %t\n", label.Render("mass:"), spec.MassKg, spec.IncludeGravity)
	fmt.Printf("%s %s -> %s\n", label.Render("direction:"), spec.From, spec.To)
	fmt.Printf("%s %.6g N\n", label.Render("force:"), force)
	fmt.Printf("%s (%.6g, %.6g, %.6g) N\n", label.Render("vector:"), v.X, v.Y, v.Z)
	return nil
}

func solveDeck(cmd *cobra.Command, args []string) error {
	ccx := solver.NewCCX(ccxBinary, timeout)
	ccx.Threads = threads

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("solving %s...\n", args[0])
	res, err := ccx.Run(ctx, args[0])
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func runForm(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	spec, _, err := form.Run(form.Values{
		Mass:    cfg.Load.Mass(),
		From:    cfg.Load.From,
		To:      cfg.Load.To,
		Gravity: cfg.Load.Gravity,
	})
	if err != nil {
		return err
	}

	rep, err := execute(cmd, func(c *config.Config) {
		c.Load.MassKg = spec.MassKg
		c.Load.From = spec.From.String()
		c.Load.To = spec.To.String()
		c.Load.Gravity = spec.IncludeGravity
	})
	if err != nil {
		return err
	}
	return record(rep)
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running scenario %s (%d steps)\n", sc.Name, len(sc.Steps))
	reports, err := automation.RunScenario(ctx, sc, base, newPipeline(base))
	for _, rep := range reports {
		printReport(rep)
		if rerr := record(rep); rerr != nil {
			return rerr
		}
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.MassSweep{
		Base:     base,
		MassMin:  sweepMin,
		MassMax:  sweepMax,
		NumSteps: sweepSteps,
	}, newPipeline(base))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MASS (kg)\tFORCE (N)\tMAX NODE\tMAX |u| (m)\tDECK")
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.6g\t%d\t%.6e\t%s\n", r.MassKg, r.ForceN, r.MaxNode, r.MaxDisplacement, r.Report.DeckPath)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tMATERIAL\tFORCE\tNODES\tSOLVED\tMAX |u|")

	for _, run := range runs {
		maxDisp := "-"
		if run.Solved {
			maxDisp = fmt.Sprintf("%.4e", run.MaxDisp)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fN\t%d\t%t\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Material,
			run.ForceN,
			run.Nodes,
			run.Solved,
			maxDisp,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(title.Render(meta.ID))
	row := func(k, v string) { fmt.Printf("  %s %s\n", label.Render(fmt.Sprintf("%-12s", k)), v) }
	row("job", meta.Job)
	row("source", meta.Source)
	if meta.Input != "" {
		row("input", meta.Input)
	}
	row("material", meta.Material)
	row("load", fmt.Sprintf("%g kg %s -> %s (gravity %t) = %.6g N", meta.MassKg, meta.From, meta.To, meta.Gravity, meta.ForceN))
	row("fixed", meta.Fixed)
	row("mesh", fmt.Sprintf("%d nodes, %v", meta.Nodes, meta.Elements))
	row("node sets", fmt.Sprintf("%d fixed, %d loaded", meta.FixedNodes, meta.LoadNodes))
	row("deck", meta.DeckPath)
	for _, f := range meta.MeshFiles {
		row("mesh file", f)
	}
	if meta.ResultVTK != "" {
		row("result", meta.ResultVTK)
	}
	if meta.Solved {
		row("max |u|", fmt.Sprintf("%.6e m at node %d", meta.MaxDisp, meta.MaxNode))
	}
	row("elapsed", fmt.Sprintf("%.3fs", meta.Elapsed))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.Result(args[0])
	if err != nil {
		return err
	}

	if plotAxis != "" {
		axis := strings.Index("xyz", strings.ToLower(plotAxis))
		if len(plotAxis) != 1 || axis < 0 {
			return fmt.Errorf("invalid axis %q (want x, y or z)", plotAxis)
		}
		m, err := savedMesh(meta)
		if err != nil {
			return err
		}
		path := plotOut
		if path == "" {
			path = meta.ID + "_profile.png"
		}
		if err := plot.Profile(res, m, axis, path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	if plotOut != "" {
		if err := plot.Magnitudes(res, plotOut); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", plotOut)
		return nil
	}

	graph, err := plot.ASCII(res, 80, 12)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func savedMesh(meta *store.RunMetadata) (*mesh.Mesh, error) {
	for _, f := range meta.MeshFiles {
		if strings.EqualFold(filepath.Ext(f), ".msh") {
			return mesh.Load(f)
		}
	}
	return nil, fmt.Errorf("run %s has no saved .msh file (rerun with --mesh-output msh)", meta.ID)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	if exportOut == "" {
		return st.WriteJSON(args[0], os.Stdout)
	}
	if err := st.ExportJSON(args[0], exportOut); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", exportOut)
	return nil
}

func printStats(s mesh.Stats) {
	fmt.Printf("%s %d nodes, %d elements", label.Render("mesh:"), s.Nodes, s.Elements)
	for _, k := range s.Kinds() {
		fmt.Printf(", %d %s", s.ByKind[k], k)
	}
	fmt.Println()
	if s.Volume > 0 {
		fmt.Printf("%s %.6g\n", label.Render("volume:"), s.Volume)
	}
}

func printReport(rep *pipeline.Report) {
	fmt.Println(title.Render(rep.Job))
	printStats(rep.Stats)
	fmt.Printf("%s %s, %.6g N %s -> %s\n", label.Render("load:"), rep.Material.Name, rep.Force, rep.Load.From, rep.Load.To)
	for _, f := range rep.MeshFiles {
		fmt.Printf("%s %s\n", label.Render("mesh file:"), f)
	}
	fmt.Printf("%s %s (%d fixed, %d loaded nodes)\n", label.Render("deck:"), rep.DeckPath, rep.FixedNodes, rep.LoadNodes)
	if rep.Result != nil {
		printResult(rep.Result)
		fmt.Printf("%s %s\n", label.Render("result:"), rep.ResultVTK)
	}
	fmt.Printf("completed in %v\n", rep.Elapsed.Round(time.Millisecond))
}

func printResult(res *solver.Result) {
	if d, ok := res.MaxDisplacement(); ok {
		fmt.Printf("%s %.6e m at node %d (%d nodes)\n", label.Render("max |u|:"), d.Magnitude(), d.Node, len(res.Displacements))
	}
	if graph, err := plot.ASCII(res, 60, 8); err == nil {
		fmt.Println(graph)
	}
}
