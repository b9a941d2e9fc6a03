package geometry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadSTL reads an ASCII or binary STL file. Binary content is decoded as
// binary; it is never reinterpreted as text.
func ReadSTL(path string) (*Surface, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := DecodeSTL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DecodeSTL decodes STL content from r. The encoding is detected from the
// content, which needs seeking.
func DecodeSTL(r io.ReadSeeker) (*Surface, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(solid.Triangles) == 0 {
		return nil, fmt.Errorf("%w: STL contains no triangles", ErrMalformed)
	}

	out := &Surface{
		Name:      solid.Name,
		ASCII:     solid.IsAscii,
		Triangles: make([]Triangle, 0, len(solid.Triangles)),
	}
	for i, t := range solid.Triangles {
		if badVec3(t.Vertices[0]) || badVec3(t.Vertices[1]) || badVec3(t.Vertices[2]) {
			return nil, fmt.Errorf("%w: triangle %d has inf/NaN vertex", ErrMalformed, i)
		}
		out.Triangles = append(out.Triangles, Triangle{V: [3]r3.Vec{
			vecFrom32(t.Vertices[0]),
			vecFrom32(t.Vertices[1]),
			vecFrom32(t.Vertices[2]),
		}})
	}
	return out, nil
}

// WriteSTL writes s to path in the encoding s was read with: ASCII when
// s.ASCII is set, binary otherwise.
func WriteSTL(path string, s *Surface) error {
	if s == nil || len(s.Triangles) == 0 {
		return errors.New("geometry: empty surface")
	}
	solid := &stl.Solid{
		Name:      s.Name,
		IsAscii:   s.ASCII,
		Triangles: make([]stl.Triangle, len(s.Triangles)),
	}
	for i, t := range s.Triangles {
		n := t.Normal()
		solid.Triangles[i] = stl.Triangle{
			Normal:   stl.Vec3{float32(n.X), float32(n.Y), float32(n.Z)},
			Vertices: [3]stl.Vec3{vec32(t.V[0]), vec32(t.V[1]), vec32(t.V[2])},
		}
	}
	return solid.WriteFile(path)
}

func badVec3(v stl.Vec3) bool {
	return math32.IsNaN(v[0]) || math32.IsInf(v[0], 0) ||
		math32.IsNaN(v[1]) || math32.IsInf(v[1], 0) ||
		math32.IsNaN(v[2]) || math32.IsInf(v[2], 0)
}

func vecFrom32(v stl.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

func vec32(v r3.Vec) stl.Vec3 {
	return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
