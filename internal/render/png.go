package render

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
)

// PNG draws charts as PNG images.
type PNG struct {
	// FontPath is a TrueType font file. Empty uses the built-in bitmap face,
	// which lacks most non-Latin-1 glyphs.
	FontPath string
}

var _ Renderer = (*PNG)(nil)

// ContentType implements Renderer.
func (*PNG) ContentType() string { return "image/png" }

// Extension implements Renderer.
func (*PNG) Extension() string { return ".png" }

// Render implements Renderer.
func (p *PNG) Render(w io.Writer, c PolarChart) error {
	dc := gg.NewContext(c.Width, c.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if p.FontPath != "" {
		if err := dc.LoadFontFace(p.FontPath, c.FontSize); err != nil {
			return fmt.Errorf("load font: %w", err)
		}
	}

	// Grid.
	dc.SetHexColor("#b0b0b0")
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	for _, r := range c.Rings {
		if r.Pixels > 0 && r.RadiusDeg < 90 {
			dc.DrawCircle(c.Center.X, c.Center.Y, r.Pixels)
			dc.Stroke()
		}
	}
	for _, s := range c.Spokes {
		dc.DrawLine(c.Center.X, c.Center.Y, s.To.X, s.To.Y)
		dc.Stroke()
	}
	dc.SetDash()

	// Horizon.
	dc.SetHexColor("#000000")
	dc.SetLineWidth(2)
	dc.DrawCircle(c.Center.X, c.Center.Y, c.Radius)
	dc.Stroke()

	dc.SetHexColor("#404040")
	for _, r := range c.Rings {
		dc.DrawStringAnchored(r.Label, r.LabelAt.X+4, r.LabelAt.Y-4, 0, 0)
	}
	dc.SetHexColor("#000000")
	for _, s := range c.Spokes {
		dc.DrawStringAnchored(s.Label, s.LabelAt.X, s.LabelAt.Y, 0.5, 0.5)
	}

	for _, m := range c.VisibleMarkers() {
		dc.SetHexColor(m.Color)
		dc.DrawCircle(m.At.X, m.At.Y, c.MarkerRadius)
		dc.Fill()
	}

	for _, item := range c.Legend {
		dc.SetHexColor(item.Color)
		dc.DrawCircle(item.At.X+c.MarkerRadius, item.At.Y, c.MarkerRadius)
		if item.Visible {
			dc.Fill()
		} else {
			dc.SetLineWidth(1.5)
			dc.Stroke()
		}
		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(item.Label, item.At.X+3*c.MarkerRadius, item.At.Y, 0, 0.5)
	}

	dc.SetHexColor("#000000")
	for i, line := range c.Title {
		dc.DrawStringAnchored(line, c.TitleAt.X, c.TitleAt.Y+float64(i)*c.FontSize*1.5, 0.5, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
