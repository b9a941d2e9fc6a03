package geometry

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoFile indicates that no geometry path was given, e.g. a cancelled selection.
	ErrNoFile = errors.New("geometry: no file selected")

	// ErrMalformed indicates the file could not be read as the expected format.
	ErrMalformed = errors.New("geometry: malformed file")

	// ErrUnknownSource indicates an unsupported variant or file extension.
	ErrUnknownSource = errors.New("geometry: unknown source")
)

// Source is the variant tag selecting where a run's geometry comes from.
type Source string

const (
	SourceSTEP     Source = "step"
	SourceSTL      Source = "stl"
	SourceBlock    Source = "block"
	SourceCylinder Source = "cylinder"
)

var Sources = []Source{SourceSTEP, SourceSTL, SourceBlock, SourceCylinder}

func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sources {
		if src == known {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// FromFile reports whether the source reads a geometry file.
func (s Source) FromFile() bool {
	return s == SourceSTEP || s == SourceSTL
}

// SourceFromPath infers the file variant from the extension.
func SourceFromPath(path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrNoFile
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return SourceSTL, nil
	case ".stp", ".step":
		return SourceSTEP, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnknownSource, filepath.Ext(path))
}

func checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoFile
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNoFile, path)
	}
	return nil
}

// Triangle is one facet of a surface.
type Triangle struct {
	V [3]r3.Vec
}

func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

func (t Triangle) Area() float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0])))
}

// Surface is a triangulated boundary read from an STL file.
type Surface struct {
	Name      string
	ASCII     bool
	Triangles []Triangle
}

func (s *Surface) Bounds() r3.Box {
	if len(s.Triangles) == 0 {
		return r3.Box{}
	}
	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, t := range s.Triangles {
		for _, v := range t.V {
			box.Min = minElem(box.Min, v)
			box.Max = maxElem(box.Max, v)
		}
	}
	return box
}

func (s *Surface) Area() float64 {
	var a float64
	for _, t := range s.Triangles {
		a += t.Area()
	}
	return a
}

func minElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
