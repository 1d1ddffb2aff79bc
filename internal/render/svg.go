package render

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo/float"
)

// SVG draws charts as SVG documents.
type SVG struct{}

var _ Renderer = (*SVG)(nil)

// ContentType implements Renderer.
func (*SVG) ContentType() string { return "image/svg+xml" }

// Extension implements Renderer.
func (*SVG) Extension() string { return ".svg" }

// errWriter remembers the first write error, since svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

// Render implements Renderer.
func (*SVG) Render(w io.Writer, c PolarChart) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	font := fmt.Sprintf("font-family:sans-serif;font-size:%.1fpx", c.FontSize)

	canvas.Start(float64(c.Width), float64(c.Height))
	canvas.Title(strings.Join(c.Title, " "))
	canvas.Rect(0, 0, float64(c.Width), float64(c.Height), "fill:white")

	canvas.Group(`id="grid"`, "stroke:#b0b0b0;stroke-width:1;stroke-dasharray:4,4;fill:none")
	for _, r := range c.Rings {
		if r.Pixels > 0 && r.RadiusDeg < 90 {
			canvas.Circle(c.Center.X, c.Center.Y, r.Pixels)
		}
	}
	for _, s := range c.Spokes {
		canvas.Line(c.Center.X, c.Center.Y, s.To.X, s.To.Y)
	}
	canvas.Gend()

	canvas.Circle(c.Center.X, c.Center.Y, c.Radius, "stroke:black;stroke-width:2;fill:none")

	canvas.Group(`id="labels"`, font)
	for _, r := range c.Rings {
		canvas.Text(r.LabelAt.X+4, r.LabelAt.Y-4, r.Label, "fill:#404040")
	}
	for _, s := range c.Spokes {
		canvas.Text(s.LabelAt.X, s.LabelAt.Y, s.Label, "text-anchor:middle;dominant-baseline:middle;font-weight:bold")
	}
	canvas.Gend()

	canvas.Group(`id="bodies"`)
	for _, m := range c.VisibleMarkers() {
		canvas.Circle(m.At.X, m.At.Y, c.MarkerRadius, "fill:"+m.Color)
	}
	canvas.Gend()

	canvas.Group(`id="legend"`, font)
	for _, item := range c.Legend {
		style := "fill:" + item.Color
		if !item.Visible {
			style = "fill:none;stroke-width:1.5;stroke:" + item.Color
		}
		canvas.Circle(item.At.X+c.MarkerRadius, item.At.Y, c.MarkerRadius, style)
		canvas.Text(item.At.X+3*c.MarkerRadius, item.At.Y, item.Label, "dominant-baseline:middle")
	}
	canvas.Gend()

	canvas.Group(`id="title"`, font+";text-anchor:middle")
	for i, line := range c.Title {
		canvas.Text(c.TitleAt.X, c.TitleAt.Y+float64(i)*c.FontSize*1.5, line)
	}
	canvas.Gend()

	canvas.End()
	return ew.err
}
