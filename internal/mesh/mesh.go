package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fepipe/internal/load"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmpty indicates a mesh with no nodes or elements.
	ErrEmpty = errors.New("mesh: empty mesh")

	// ErrDimension indicates a non-positive size or dimension.
	ErrDimension = errors.New("mesh: dimensions must be positive")
)

// Kind is an element shape.
type Kind int

const (
	Tri3 Kind = iota + 1
	Tet4
	Hex8
	Wedge6
)

func (k Kind) String() string {
	switch k {
	case Tri3:
		return "tri3"
	case Tet4:
		return "tet4"
	case Hex8:
		return "hex8"
	case Wedge6:
		return "wedge6"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) NumNodes() int {
	switch k {
	case Tri3:
		return 3
	case Tet4:
		return 4
	case Hex8:
		return 8
	case Wedge6:
		return 6
	}
	return 0
}

// Solid reports whether the kind is a volume element.
func (k Kind) Solid() bool {
	return k == Tet4 || k == Hex8 || k == Wedge6
}

// Node IDs are 1-based and equal to their position in Mesh.Nodes plus one.
type Node struct {
	ID int
	P  r3.Vec
}

type Element struct {
	ID    int
	Kind  Kind
	Nodes []int
}

type Mesh struct {
	Nodes    []Node
	Elements []Element
}

func (m *Mesh) AddNode(p r3.Vec) int {
	id := len(m.Nodes) + 1
	m.Nodes = append(m.Nodes, Node{ID: id, P: p})
	return id
}

func (m *Mesh) AddElement(kind Kind, nodes ...int) int {
	id := len(m.Elements) + 1
	conn := make([]int, len(nodes))
	copy(conn, nodes)
	m.Elements = append(m.Elements, Element{ID: id, Kind: kind, Nodes: conn})
	return id
}

// Node returns the coordinates of node id.
func (m *Mesh) Node(id int) r3.Vec {
	return m.Nodes[id-1].P
}

func (m *Mesh) Validate() error {
	if len(m.Nodes) == 0 || len(m.Elements) == 0 {
		return ErrEmpty
	}
	for i, n := range m.Nodes {
		if n.ID != i+1 {
			return fmt.Errorf("mesh: node %d out of sequence at index %d", n.ID, i)
		}
	}
	for _, e := range m.Elements {
		if len(e.Nodes) != e.Kind.NumNodes() {
			return fmt.Errorf("mesh: element %d (%s) has %d nodes", e.ID, e.Kind, len(e.Nodes))
		}
		for _, id := range e.Nodes {
			if id < 1 || id > len(m.Nodes) {
				return fmt.Errorf("mesh: element %d references missing node %d", e.ID, id)
			}
		}
	}
	return nil
}

// HasSolids reports whether any volume element is present.
func (m *Mesh) HasSolids() bool {
	for _, e := range m.Elements {
		if e.Kind.Solid() {
			return true
		}
	}
	return false
}

func (m *Mesh) Bounds() r3.Box {
	if len(m.Nodes) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Nodes[0].P, Max: m.Nodes[0].P}
	for _, n := range m.Nodes[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, n.P.X), Y: math.Min(b.Min.Y, n.P.Y), Z: math.Min(b.Min.Z, n.P.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, n.P.X), Y: math.Max(b.Max.Y, n.P.Y), Z: math.Max(b.Max.Z, n.P.Z)}
	}
	return b
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// FaceNodes returns the IDs of nodes lying on the bounding-box face named
// by dir, e.g. z+ is the top face.
func (m *Mesh) FaceNodes(dir load.Direction) []int {
	axis := dir.Axis()
	if axis < 0 || len(m.Nodes) == 0 {
		return nil
	}
	b := m.Bounds()
	target := component(b.Max, axis)
	if dir.Sign() < 0 {
		target = component(b.Min, axis)
	}
	tol := 1e-6 * math.Max(r3.Norm(r3.Sub(b.Max, b.Min)), 1)

	var ids []int
	for _, n := range m.Nodes {
		if math.Abs(component(n.P, axis)-target) <= tol {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Stats summarizes a mesh.
type Stats struct {
	Nodes    int
	Elements int
	ByKind   map[Kind]int
	Volume   float64
}

func (m *Mesh) Stats() Stats {
	s := Stats{Nodes: len(m.Nodes), Elements: len(m.Elements), ByKind: make(map[Kind]int)}
	for _, e := range m.Elements {
		s.ByKind[e.Kind]++
	}
	s.Volume = m.Volume()
	return s
}

// Kinds returns the element kinds present, in ascending order.
func (s Stats) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Centroids returns element centroids for the given kind.
func (m *Mesh) Centroids(kind Kind) []r3.Vec {
	var out []r3.Vec
	for _, e := range m.Elements {
		if e.Kind != kind {
			continue
		}
		var c r3.Vec
		for _, id := range e.Nodes {
			c = r3.Add(c, m.Node(id))
		}
		out = append(out, r3.Scale(1/float64(len(e.Nodes)), c))
	}
	return out
}

// Volume sums the volume of all solid elements.
func (m *Mesh) Volume() float64 {
	var v float64
	for _, e := range m.Elements {
		p := make([]r3.Vec, len(e.Nodes))
		for i, id := range e.Nodes {
			p[i] = m.Node(id)
		}
		switch e.Kind {
		case Tet4:
			v += tetVolume(p[0], p[1], p[2], p[3])
		case Wedge6:
			v += tetVolume(p[0], p[1], p[2], p[3]) +
				tetVolume(p[1], p[2], p[3], p[4]) +
				tetVolume(p[2], p[3], p[4], p[5])
		case Hex8:
			v += tetVolume(p[0], p[1], p[2], p[6]) +
				tetVolume(p[0], p[2], p[3], p[6]) +
				tetVolume(p[0], p[3], p[7], p[6]) +
				tetVolume(p[0], p[7], p[4], p[6]) +
				tetVolume(p[0], p[4], p[5], p[6]) +
				tetVolume(p[0], p[5], p[1], p[6])
		}
	}
	return v
}

func tetVolume(a, b, c, d r3.Vec) float64 {
	return math.Abs(r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))) / 6
}
