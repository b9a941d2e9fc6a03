package mesh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/fepipe/internal/geometry"
)

// Mesher turns a geometry file into a volume mesh.
type Mesher interface {
	Mesh(ctx context.Context, path string) (*Mesh, error)
}

// ErrMesher indicates the external mesher failed.
var ErrMesher = errors.New("mesh: external mesher failed")

// Gmsh runs the gmsh binary on STEP or STL files.
type Gmsh struct {
	Binary  string
	Size    float64
	WorkDir string

	// command builds the process; replaced in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewGmsh(binary string, size float64) *Gmsh {
	if binary == "" {
		binary = "gmsh"
	}
	return &Gmsh{Binary: binary, Size: size, command: exec.CommandContext}
}

// LookupGmsh returns a Gmsh runner when binary resolves to an executable,
// either on PATH or as a path. It returns ok=false otherwise.
func LookupGmsh(binary string, size float64) (g *Gmsh, ok bool) {
	if binary == "" {
		return nil, false
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, false
	}
	return NewGmsh(resolved, size), true
}

// Args returns the gmsh command line for meshing input into output.
func (g *Gmsh) Args(input, output string) []string {
	args := []string{input, "-3", "-format", "msh22", "-o", output}
	if g.Size > 0 {
		args = append(args, "-clmax", strconv.FormatFloat(g.Size, 'g', -1, 64))
	}
	return args
}

// stlScript wraps an STL surface in a .geo script that closes it into a
// volume gmsh can mesh.
func stlScript(stlPath string) string {
	return fmt.Sprintf("Merge %q;\nSurface Loop(1) = {1};\nVolume(1) = {1};\n", filepath.ToSlash(stlPath))
}

func (g *Gmsh) Mesh(ctx context.Context, path string) (*Mesh, error) {
	src, err := geometry.SourceFromPath(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(g.WorkDir, "gmsh-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	input := abs
	if src == geometry.SourceSTL {
		input = filepath.Join(dir, "volume.geo")
		if err := os.WriteFile(input, []byte(stlScript(abs)), 0644); err != nil {
			return nil, err
		}
	}
	output := filepath.Join(dir, "out.msh")

	command := g.command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(ctx, g.Binary, g.Args(input, output)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrMesher, err, lastLines(string(out), 5))
	}
	return Load(output)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
