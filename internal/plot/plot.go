package plot

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fepipe/internal/mesh"
	"github.com/san-kum/fepipe/internal/solver"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData indicates an empty result.
var ErrNoData = errors.New("plot: no data to plot")

// ASCII renders displacement magnitude per node as a terminal chart.
func ASCII(res *solver.Result, width, height int) (string, error) {
	if res == nil || len(res.Displacements) == 0 {
		return "", ErrNoData
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 10
	}
	data := res.Magnitudes()
	caption := fmt.Sprintf("|u| per node (%d nodes)", len(data))
	if res.Jobname != "" {
		caption = res.Jobname + ": " + caption
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// Magnitudes saves a line chart of displacement magnitude per node.
// The format follows the extension: .png, .svg or .pdf.
func Magnitudes(res *solver.Result, path string) error {
	if res == nil || len(res.Displacements) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Displacement magnitude"
	p.X.Label.Text = "Node"
	p.Y.Label.Text = "|u| (m)"

	pts := make(plotter.XYs, len(res.Displacements))
	for i, d := range res.Displacements {
		pts[i] = plotter.XY{X: float64(d.Node), Y: d.Magnitude()}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{R: 0, G: 120, B: 200, A: 255}
	p.Add(line, plotter.NewGrid())
	return save(p, path)
}

// Profile saves a scatter of displacement magnitude against the node
// coordinate along axis (0, 1, 2 for x, y, z).
func Profile(res *solver.Result, m *mesh.Mesh, axis int, path string) error {
	if res == nil || len(res.Displacements) == 0 || m == nil {
		return ErrNoData
	}
	if axis < 0 || axis > 2 {
		return fmt.Errorf("plot: invalid axis %d", axis)
	}
	pts := make(plotter.XYs, 0, len(res.Displacements))
	for _, d := range res.Displacements {
		if d.Node < 1 || d.Node > len(m.Nodes) {
			continue
		}
		n := m.Node(d.Node)
		x := [3]float64{n.X, n.Y, n.Z}[axis]
		pts = append(pts, plotter.XY{X: x, Y: d.Magnitude()})
	}
	if len(pts) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Displacement profile"
	p.X.Label.Text = string("xyz"[axis]) + " (m)"
	p.Y.Label.Text = "|u| (m)"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	p.Add(sc, plotter.NewGrid())
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf":
	default:
		path += ".png"
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
