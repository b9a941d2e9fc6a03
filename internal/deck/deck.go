package deck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/fepipe/internal/load"
	"github.com/san-kum/fepipe/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNotSolid indicates a mesh without volume elements.
	ErrNotSolid = errors.New("deck: mesh has no solid elements")

	// ErrNoNodes indicates an empty fixed or loaded node set.
	ErrNoNodes = errors.New("deck: empty node set")

	// ErrSameFace indicates the fixed face is also the loaded face.
	ErrSameFace = errors.New("deck: fixed face equals loaded face")
)

var elementType = map[mesh.Kind]string{
	mesh.Hex8:   "C3D8",
	mesh.Wedge6: "C3D6",
	mesh.Tet4:   "C3D4",
}

// Model is everything needed to write one static load case.
type Model struct {
	Name     string
	Mesh     *mesh.Mesh
	Material Material
	Load     load.Spec
	// Fixed is the clamped face. Empty means opposite the loaded face.
	Fixed load.Direction
}

// Deck is a resolved Model: node sets and per-node forces.
type Deck struct {
	Model
	FixedNodes []int
	LoadNodes  []int
	Total      r3.Vec
	PerNode    r3.Vec
}

// Build resolves node sets and distributes the load evenly over the
// loaded face nodes that are not clamped.
func Build(m Model) (*Deck, error) {
	if m.Mesh == nil {
		return nil, mesh.ErrEmpty
	}
	if err := m.Mesh.Validate(); err != nil {
		return nil, err
	}
	if !m.Mesh.HasSolids() {
		return nil, ErrNotSolid
	}
	if err := m.Material.Validate(); err != nil {
		return nil, err
	}
	if err := m.Load.Validate(); err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = "model"
	}

	loaded := m.Load.LoadedFace()
	if m.Fixed == "" {
		m.Fixed = loaded.Opposite()
	}
	if !m.Fixed.Valid() {
		return nil, fmt.Errorf("deck: invalid fixed face %q", m.Fixed)
	}
	if m.Fixed == loaded {
		return nil, fmt.Errorf("%w: %s", ErrSameFace, loaded)
	}

	d := &Deck{
		Model:      m,
		FixedNodes: m.Mesh.FaceNodes(m.Fixed),
		Total:      m.Load.Vector(),
	}
	// Nodes on an edge shared with the fixed face would pass their share
	// of the load straight into the support.
	clamped := make(map[int]bool, len(d.FixedNodes))
	for _, id := range d.FixedNodes {
		clamped[id] = true
	}
	for _, id := range m.Mesh.FaceNodes(loaded) {
		if !clamped[id] {
			d.LoadNodes = append(d.LoadNodes, id)
		}
	}
	if len(d.FixedNodes) == 0 {
		return nil, fmt.Errorf("%w: fixed face %s", ErrNoNodes, m.Fixed)
	}
	if len(d.LoadNodes) == 0 {
		return nil, fmt.Errorf("%w: loaded face %s", ErrNoNodes, loaded)
	}
	d.PerNode = r3.Scale(1/float64(len(d.LoadNodes)), d.Total)
	return d, nil
}

// Jobname is the solver job name, the deck file name without ".inp".
func (d *Deck) Jobname() string {
	return SafeName(d.Name)
}

// SafeName maps s to a file-name token: anything outside [A-Za-z0-9_-]
// becomes '_', and an empty result becomes "model".
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "model"
	}
	return b.String()
}

// Write emits the deck in CalculiX/Abaqus input format.
func (d *Deck) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	matName := strings.ToUpper(SafeName(d.Material.Name))

	fmt.Fprintln(bw, "*HEADING")
	fmt.Fprintf(bw, "%s: %g kg, gravity=%t, %s -> %s\n",
		d.Name, d.Load.MassKg, d.Load.IncludeGravity, d.Load.From, d.Load.To)

	fmt.Fprintln(bw, "*NODE, NSET=NALL")
	for _, n := range d.Mesh.Nodes {
		fmt.Fprintf(bw, "%d, %s, %s, %s\n", n.ID, ftoa(n.P.X), ftoa(n.P.Y), ftoa(n.P.Z))
	}

	for _, kind := range []mesh.Kind{mesh.Hex8, mesh.Wedge6, mesh.Tet4} {
		first := true
		for _, e := range d.Mesh.Elements {
			if e.Kind != kind {
				continue
			}
			if first {
				fmt.Fprintf(bw, "*ELEMENT, TYPE=%s, ELSET=EALL\n", elementType[kind])
				first = false
			}
			fmt.Fprintf(bw, "%d", e.ID)
			for _, id := range e.Nodes {
				fmt.Fprintf(bw, ", %d", id)
			}
			fmt.Fprintln(bw)
		}
	}

	writeNset(bw, "NFIX", d.FixedNodes)
	writeNset(bw, "NLOAD", d.LoadNodes)

	fmt.Fprintf(bw, "*MATERIAL, NAME=%s\n", matName)
	fmt.Fprintln(bw, "*ELASTIC")
	fmt.Fprintf(bw, "%s, %s\n", ftoa(d.Material.YoungModulus), ftoa(d.Material.Poisson))
	if d.Material.Density > 0 {
		fmt.Fprintln(bw, "*DENSITY")
		fmt.Fprintln(bw, ftoa(d.Material.Density))
	}
	fmt.Fprintf(bw, "*SOLID SECTION, ELSET=EALL, MATERIAL=%s\n", matName)

	fmt.Fprintln(bw, "*STEP")
	fmt.Fprintln(bw, "*STATIC")
	fmt.Fprintln(bw, "*BOUNDARY")
	fmt.Fprintln(bw, "NFIX, 1, 3, 0")
	fmt.Fprintln(bw, "*CLOAD")
	comps := [3]float64{d.PerNode.X, d.PerNode.Y, d.PerNode.Z}
	for _, id := range d.LoadNodes {
		for dof, v := range comps {
			if v != 0 {
				fmt.Fprintf(bw, "%d, %d, %s\n", id, dof+1, ftoa(v))
			}
		}
	}
	fmt.Fprintln(bw, "*NODE PRINT, NSET=NALL")
	fmt.Fprintln(bw, "U")
	fmt.Fprintln(bw, "*NODE FILE")
	fmt.Fprintln(bw, "U")
	fmt.Fprintln(bw, "*EL FILE")
	fmt.Fprintln(bw, "S")
	fmt.Fprintln(bw, "*END STEP")
	return bw.Flush()
}

func (d *Deck) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const nsetPerLine = 10

func writeNset(w io.Writer, name string, ids []int) {
	fmt.Fprintf(w, "*NSET, NSET=%s\n", name)
	for i := 0; i < len(ids); i += nsetPerLine {
		end := i + nsetPerLine
		if end > len(ids) {
			end = len(ids)
		}
		parts := make([]string, 0, end-i)
		for _, id := range ids[i:end] {
			parts = append(parts, strconv.Itoa(id))
		}
		fmt.Fprintln(w, strings.Join(parts, ", "))
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
