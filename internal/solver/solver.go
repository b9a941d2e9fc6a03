package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSolver indicates the solver process exited with an error.
	ErrSolver = errors.New("solver: run failed")

	// ErrTimeout indicates the solver exceeded its time budget.
	ErrTimeout = errors.New("solver: timed out")

	// ErrNoResults indicates the solver produced no displacement table.
	ErrNoResults = errors.New("solver: no displacement results")
)

// Runner solves a written input deck.
type Runner interface {
	Run(ctx context.Context, deckPath string) (*Result, error)
}

// Displacement is the displacement of one node.
type Displacement struct {
	Node int
	U    [3]float64
}

func (d Displacement) Magnitude() float64 {
	return math.Sqrt(d.U[0]*d.U[0] + d.U[1]*d.U[1] + d.U[2]*d.U[2])
}

type Result struct {
	Jobname       string
	Time          float64
	Displacements []Displacement
	Output        string
	Elapsed       time.Duration
}

// MaxDisplacement returns the node with the largest displacement magnitude.
func (r *Result) MaxDisplacement() (Displacement, bool) {
	if r == nil || len(r.Displacements) == 0 {
		return Displacement{}, false
	}
	best := r.Displacements[0]
	for _, d := range r.Displacements[1:] {
		if d.Magnitude() > best.Magnitude() {
			best = d
		}
	}
	return best, true
}

// Magnitudes returns displacement magnitudes in node order.
func (r *Result) Magnitudes() []float64 {
	out := make([]float64, len(r.Displacements))
	for i, d := range r.Displacements {
		out[i] = d.Magnitude()
	}
	return out
}

// CCX runs the CalculiX solver binary.
type CCX struct {
	Binary  string
	Timeout time.Duration
	Threads int

	// command builds the process; replaced in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewCCX(binary string, timeout time.Duration) *CCX {
	if binary == "" {
		binary = "ccx"
	}
	return &CCX{Binary: binary, Timeout: timeout, command: exec.CommandContext}
}

// Run solves deckPath (a .inp file) in its own directory and parses the
// resulting .dat file.
func (c *CCX) Run(ctx context.Context, deckPath string) (*Result, error) {
	if !strings.EqualFold(filepath.Ext(deckPath), ".inp") {
		return nil, fmt.Errorf("solver: deck must be an .inp file, got %s", deckPath)
	}
	if _, err := os.Stat(deckPath); err != nil {
		return nil, err
	}
	dir := filepath.Dir(deckPath)
	job := strings.TrimSuffix(filepath.Base(deckPath), filepath.Ext(deckPath))

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	command := c.command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(ctx, c.Binary, "-i", job)
	cmd.Dir = dir
	if c.Threads > 0 {
		n := strconv.Itoa(c.Threads)
		cmd.Env = append(os.Environ(), "OMP_NUM_THREADS="+n, "CCX_NPROC_EQUATION_SOLVER="+n)
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, c.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrSolver, err, tail(string(out), 5))
	}

	f, err := os.Open(filepath.Join(dir, job+".dat"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	defer f.Close()

	res, err := ParseDAT(f)
	if err != nil {
		return nil, err
	}
	res.Jobname = job
	res.Output = string(out)
	res.Elapsed = elapsed
	return res, nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
