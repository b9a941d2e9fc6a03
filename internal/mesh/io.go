package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Gmsh 2.2 element type numbers.
var gmshType = map[Kind]int{Tri3: 2, Tet4: 4, Hex8: 5, Wedge6: 6}

var gmshKind = map[int]Kind{2: Tri3, 4: Tet4, 5: Hex8, 6: Wedge6}

// VTK legacy cell type numbers.
var vtkType = map[Kind]int{Tri3: 5, Tet4: 10, Hex8: 12, Wedge6: 13}

// WriteMSH writes m in Gmsh 2.2 ASCII format.
func WriteMSH(w io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "$MeshFormat")
	fmt.Fprintln(bw, "2.2 0 8")
	fmt.Fprintln(bw, "$EndMeshFormat")
	fmt.Fprintln(bw, "$Nodes")
	fmt.Fprintln(bw, len(m.Nodes))
	for _, n := range m.Nodes {
		fmt.Fprintf(bw, "%d %s %s %s\n", n.ID, ftoa(n.P.X), ftoa(n.P.Y), ftoa(n.P.Z))
	}
	fmt.Fprintln(bw, "$EndNodes")
	fmt.Fprintln(bw, "$Elements")
	fmt.Fprintln(bw, len(m.Elements))
	for _, e := range m.Elements {
		fmt.Fprintf(bw, "%d %d 2 1 1", e.ID, gmshType[e.Kind])
		for _, id := range e.Nodes {
			fmt.Fprintf(bw, " %d", id)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "$EndElements")
	return bw.Flush()
}

// ReadMSH reads a Gmsh 2.2 ASCII mesh. Node IDs are renumbered to be
// sequential; points, lines and quads are skipped.
func ReadMSH(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	m := &Mesh{}
	renumber := make(map[int]int)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}
	count := func(section string) (int, error) {
		s, ok := next()
		if !ok {
			return 0, fmt.Errorf("msh: unexpected EOF in %s", section)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("msh: line %d: bad %s count %q", line, section, s)
		}
		return n, nil
	}

	sawFormat := false
	for {
		s, ok := next()
		if !ok {
			break
		}
		switch s {
		case "$MeshFormat":
			hdr, ok := next()
			if !ok {
				return nil, fmt.Errorf("msh: unexpected EOF in $MeshFormat")
			}
			f := strings.Fields(hdr)
			if len(f) < 2 || !strings.HasPrefix(f[0], "2.") || f[1] != "0" {
				return nil, fmt.Errorf("msh: line %d: unsupported format %q (need ASCII 2.x)", line, hdr)
			}
			sawFormat = true
		case "$Nodes":
			n, err := count("$Nodes")
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				s, ok := next()
				if !ok {
					return nil, fmt.Errorf("msh: unexpected EOF in $Nodes")
				}
				f := strings.Fields(s)
				if len(f) != 4 {
					return nil, fmt.Errorf("msh: line %d: bad node record %q", line, s)
				}
				id, err := strconv.Atoi(f[0])
				if err != nil {
					return nil, fmt.Errorf("msh: line %d: bad node id %q", line, f[0])
				}
				var p [3]float64
				for j := 0; j < 3; j++ {
					if p[j], err = strconv.ParseFloat(f[j+1], 64); err != nil {
						return nil, fmt.Errorf("msh: line %d: bad coordinate %q", line, f[j+1])
					}
				}
				renumber[id] = m.AddNode(r3.Vec{X: p[0], Y: p[1], Z: p[2]})
			}
		case "$Elements":
			n, err := count("$Elements")
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				s, ok := next()
				if !ok {
					return nil, fmt.Errorf("msh: unexpected EOF in $Elements")
				}
				if err := readElement(m, renumber, s); err != nil {
					return nil, fmt.Errorf("msh: line %d: %w", line, err)
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawFormat {
		return nil, fmt.Errorf("msh: missing $MeshFormat")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readElement(m *Mesh, renumber map[int]int, s string) error {
	f := strings.Fields(s)
	if len(f) < 3 {
		return fmt.Errorf("bad element record %q", s)
	}
	vals := make([]int, len(f))
	for i, tok := range f {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("bad integer %q", tok)
		}
		vals[i] = v
	}
	kind, ok := gmshKind[vals[1]]
	if !ok {
		return nil
	}
	ntags := vals[2]
	if ntags < 0 || 3+ntags > len(vals) {
		return fmt.Errorf("element %d: bad tag count %d", vals[0], ntags)
	}
	conn := vals[3+ntags:]
	if len(conn) != kind.NumNodes() {
		return fmt.Errorf("element %d: expected %d nodes, got %d", vals[0], kind.NumNodes(), len(conn))
	}
	for i, id := range conn {
		nid, ok := renumber[id]
		if !ok {
			return fmt.Errorf("element %d references unknown node %d", vals[0], id)
		}
		conn[i] = nid
	}
	m.AddElement(kind, conn...)
	return nil
}

// PointField is a per-node vector field written alongside a VTK mesh.
type PointField struct {
	Name    string
	Vectors map[int]r3.Vec
}

// WriteVTK writes m as a legacy ASCII VTK unstructured grid.
func WriteVTK(w io.Writer, m *Mesh, title string, fields ...PointField) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if title == "" {
		title = "fepipe mesh"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# vtk DataFile Version 3.0")
	fmt.Fprintln(bw, strings.ReplaceAll(title, "\n", " "))
	fmt.Fprintln(bw, "ASCII")
	fmt.Fprintln(bw, "DATASET UNSTRUCTURED_GRID")
	fmt.Fprintf(bw, "POINTS %d double\n", len(m.Nodes))
	for _, n := range m.Nodes {
		fmt.Fprintf(bw, "%s %s %s\n", ftoa(n.P.X), ftoa(n.P.Y), ftoa(n.P.Z))
	}

	size := 0
	for _, e := range m.Elements {
		size += 1 + len(e.Nodes)
	}
	fmt.Fprintf(bw, "CELLS %d %d\n", len(m.Elements), size)
	for _, e := range m.Elements {
		fmt.Fprintf(bw, "%d", len(e.Nodes))
		for _, id := range vtkOrder(e) {
			fmt.Fprintf(bw, " %d", id-1)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", len(m.Elements))
	for _, e := range m.Elements {
		fmt.Fprintln(bw, vtkType[e.Kind])
	}

	if len(fields) > 0 {
		fmt.Fprintf(bw, "POINT_DATA %d\n", len(m.Nodes))
		for _, f := range fields {
			fmt.Fprintf(bw, "VECTORS %s double\n", strings.ReplaceAll(f.Name, " ", "_"))
			for _, n := range m.Nodes {
				v := f.Vectors[n.ID]
				fmt.Fprintf(bw, "%s %s %s\n", ftoa(v.X), ftoa(v.Y), ftoa(v.Z))
			}
		}
	}
	return bw.Flush()
}

// vtkOrder returns connectivity in VTK order. VTK wedges expect the first
// triangle's normal to point toward the second, the reverse of Gmsh.
func vtkOrder(e Element) []int {
	if e.Kind != Wedge6 {
		return e.Nodes
	}
	n := e.Nodes
	return []int{n[0], n[2], n[1], n[3], n[5], n[4]}
}

// Save writes m to path, choosing the format from the extension
// (.msh or .vtk).
func Save(path string, m *Mesh) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msh":
		write = func(w io.Writer) error { return WriteMSH(w, m) }
	case ".vtk":
		write = func(w io.Writer) error { return WriteVTK(w, m, filepath.Base(path)) }
	default:
		return fmt.Errorf("mesh: unsupported output extension %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a Gmsh .msh file.
func Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMSH(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
