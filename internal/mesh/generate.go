package mesh

import (
	"fmt"
	"math"

	"github.com/san-kum/fepipe/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

func divisions(length, size float64) int {
	n := int(math.Ceil(length/size - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// Block builds a structured hexahedral mesh of a dx*dy*dz box with one
// corner at the origin. Element edges are at most size long.
func Block(dx, dy, dz, size float64) (*Mesh, error) {
	if dx <= 0 || dy <= 0 || dz <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: block %gx%gx%g size %g", ErrDimension, dx, dy, dz, size)
	}
	nx, ny, nz := divisions(dx, size), divisions(dy, size), divisions(dz, size)

	m := &Mesh{}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				m.AddNode(r3.Vec{
					X: dx * float64(i) / float64(nx),
					Y: dy * float64(j) / float64(ny),
					Z: dz * float64(k) / float64(nz),
				})
			}
		}
	}

	id := func(i, j, k int) int {
		return 1 + i + j*(nx+1) + k*(nx+1)*(ny+1)
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				m.AddElement(Hex8,
					id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
					id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1),
				)
			}
		}
	}
	return m, nil
}

// Cylinder builds a mesh of a cylinder with its axis on +z and its base at
// z=0: wedges around the axis, hexahedra in the outer rings.
func Cylinder(radius, height, size float64) (*Mesh, error) {
	if radius <= 0 || height <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: cylinder r=%g h=%g size %g", ErrDimension, radius, height, size)
	}
	nr := divisions(radius, size)
	nz := divisions(height, size)
	nt := divisions(2*math.Pi*radius, size)
	if nt < 8 {
		nt = 8
	}
	perLayer := 1 + nr*nt

	m := &Mesh{}
	for k := 0; k <= nz; k++ {
		z := height * float64(k) / float64(nz)
		m.AddNode(r3.Vec{Z: z})
		for a := 1; a <= nr; a++ {
			r := radius * float64(a) / float64(nr)
			for b := 0; b < nt; b++ {
				theta := 2 * math.Pi * float64(b) / float64(nt)
				m.AddNode(r3.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z})
			}
		}
	}

	center := func(k int) int { return 1 + k*perLayer }
	ring := func(k, a, b int) int {
		return 1 + k*perLayer + 1 + (a-1)*nt + b%nt
	}
	for k := 0; k < nz; k++ {
		for b := 0; b < nt; b++ {
			m.AddElement(Wedge6,
				center(k), ring(k, 1, b), ring(k, 1, b+1),
				center(k+1), ring(k+1, 1, b), ring(k+1, 1, b+1),
			)
		}
		for a := 1; a < nr; a++ {
			for b := 0; b < nt; b++ {
				m.AddElement(Hex8,
					ring(k, a, b), ring(k, a+1, b), ring(k, a+1, b+1), ring(k, a, b+1),
					ring(k+1, a, b), ring(k+1, a+1, b), ring(k+1, a+1, b+1), ring(k+1, a, b+1),
				)
			}
		}
	}
	return m, nil
}

// FromSurface converts an STL surface into a triangle mesh, merging
// vertices closer than a small fraction of the model size.
func FromSurface(s *geometry.Surface) (*Mesh, error) {
	if s == nil || len(s.Triangles) == 0 {
		return nil, ErrEmpty
	}
	b := s.Bounds()
	tol := 1e-9 * math.Max(r3.Norm(r3.Sub(b.Max, b.Min)), 1)

	type key [3]int64
	quantize := func(v r3.Vec) key {
		return key{int64(math.Round(v.X / tol)), int64(math.Round(v.Y / tol)), int64(math.Round(v.Z / tol))}
	}

	m := &Mesh{}
	seen := make(map[key]int)
	for _, t := range s.Triangles {
		var conn [3]int
		for i, v := range t.V {
			k := quantize(v)
			id, ok := seen[k]
			if !ok {
				id = m.AddNode(v)
				seen[k] = id
			}
			conn[i] = id
		}
		if conn[0] == conn[1] || conn[1] == conn[2] || conn[0] == conn[2] {
			continue
		}
		m.AddElement(Tri3, conn[:]...)
	}
	if len(m.Elements) == 0 {
		return nil, ErrEmpty
	}
	return m, nil
}
