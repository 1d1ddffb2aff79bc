// Package render lays out a sky chart as a polar plot and draws it.
//
// The plot is the classic planisphere view: zenith at the centre, the
// horizon on the outer circle, north at the top and azimuth increasing
// clockwise through east.
package render

import (
	"fmt"
	"math"
	"time"

	"go.ngs.io/skychart-api/internal/domain"
)

// DefaultSize is the edge of the square plot area in pixels.
const DefaultSize = 1000

// TitleTimeLayout formats the chart instant on the title's second line.
const TitleTimeLayout = "2006-01-02 15:04:05"

// Palette is the marker colour cycle.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// PolarPoint is a body position on the polar plot. Radius is the zenith
// distance in degrees: 0 at the zenith, 90 on the horizon.
type PolarPoint struct {
	ThetaRad float64
	Radius   float64
	Visible  bool
}

// Project maps a horizontal position onto the polar plot.
func Project(h domain.HorizontalCoordinate) PolarPoint {
	r := 90 - h.AltitudeDeg
	return PolarPoint{
		ThetaRad: domain.Deg2Rad(h.AzimuthDeg),
		Radius:   r,
		Visible:  r <= 90,
	}
}

// Point is a canvas position in pixels, y growing downward.
type Point struct {
	X float64
	Y float64
}

// Ring is a circle of constant altitude.
type Ring struct {
	RadiusDeg float64
	Pixels    float64
	Label     string
	LabelAt   Point
}

// Spoke is a line of constant azimuth from the zenith to the horizon.
type Spoke struct {
	AzimuthDeg float64
	Label      string
	To         Point
	LabelAt    Point
}

// Marker is one chart entry placed on the canvas.
type Marker struct {
	Label       string
	Name        string
	Color       string
	AltitudeDeg float64
	AzimuthDeg  float64
	Polar       PolarPoint
	At          Point
}

// LegendItem is one legend row.
type LegendItem struct {
	Label   string
	Color   string
	Visible bool
	At      Point
}

// PolarChart is a fully laid out chart, independent of the drawing backend.
type PolarChart struct {
	Width  int
	Height int
	Center Point
	Radius float64

	Title   []string
	TitleAt Point

	Rings   []Ring
	Spokes  []Spoke
	Markers []Marker
	Legend  []LegendItem

	MarkerRadius float64
	FontSize     float64
}

// ToCanvas maps a polar point to canvas pixels.
func (c PolarChart) ToCanvas(p PolarPoint) Point {
	s := p.Radius / 90 * c.Radius
	return Point{
		X: c.Center.X + s*math.Sin(p.ThetaRad),
		Y: c.Center.Y - s*math.Cos(p.ThetaRad),
	}
}

// Options control the layout.
type Options struct {
	// Size is the plot area edge in pixels. The legend column adds to the width.
	Size int
	// Zone is the display time zone for the title. Nil means UTC.
	Zone *time.Location
	// Labels holds the localized texts. The zero value means English.
	Labels Labels
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Zone == nil {
		o.Zone = time.UTC
	}
	if o.Labels.Horizon == "" {
		o.Labels = English
	}
	return o
}

// Layout places every part of the chart on the canvas. Markers keep the
// model order and each takes the next palette colour; markers below the
// horizon stay in the list with Polar.Visible false and still get a legend row.
func Layout(chart domain.SkyChart, opts Options) PolarChart {
	opts = opts.withDefaults()
	size := float64(opts.Size)

	c := PolarChart{
		Width:        opts.Size + opts.Size*3/10,
		Height:       opts.Size,
		Center:       Point{X: size / 2, Y: size/2 + size*0.03},
		Radius:       size * 0.40,
		MarkerRadius: math.Max(3, size*0.008),
		FontSize:     math.Max(8, size*0.016),
	}

	name := chart.Observer.Name
	if name == "" {
		name = fmt.Sprintf("%.4f, %.4f", chart.Observer.LatitudeDeg, chart.Observer.LongitudeDeg)
	}
	c.Title = []string{
		fmt.Sprintf(opts.Labels.TitleFormat, name),
		chart.Instant.In(opts.Zone).Format(TitleTimeLayout),
	}
	c.TitleAt = Point{X: size / 2, Y: size * 0.035}

	// Altitude rings at zenith distance 0, 30, 60 and 90 degrees, labelled
	// along the 22.5 degree azimuth.
	labelTheta := domain.Deg2Rad(22.5)
	for i, r := range []float64{0, 30, 60, 90} {
		ring := Ring{
			RadiusDeg: r,
			Pixels:    r / 90 * c.Radius,
			Label:     opts.Labels.Rings[i],
		}
		ring.LabelAt = c.ToCanvas(PolarPoint{ThetaRad: labelTheta, Radius: r})
		c.Rings = append(c.Rings, ring)
	}

	cardinals := []string{opts.Labels.North, opts.Labels.East, opts.Labels.South, opts.Labels.West}
	for i, name := range cardinals {
		az := float64(i) * 90
		theta := domain.Deg2Rad(az)
		c.Spokes = append(c.Spokes, Spoke{
			AzimuthDeg: az,
			Label:      name,
			To:         c.ToCanvas(PolarPoint{ThetaRad: theta, Radius: 90}),
			LabelAt:    c.ToCanvas(PolarPoint{ThetaRad: theta, Radius: 90 * (1 + 0.07)}),
		})
	}

	legendX := size + size*0.02
	legendY := size * 0.12
	lineHeight := c.FontSize * 1.8
	for i, e := range chart.Entries {
		color := Palette[i%len(Palette)]
		p := Project(e.Horizontal)
		c.Markers = append(c.Markers, Marker{
			Label:       e.Label,
			Name:        e.Name,
			Color:       color,
			AltitudeDeg: e.Horizontal.AltitudeDeg,
			AzimuthDeg:  e.Horizontal.AzimuthDeg,
			Polar:       p,
			At:          c.ToCanvas(p),
		})
		c.Legend = append(c.Legend, LegendItem{
			Label:   e.Label,
			Color:   color,
			Visible: p.Visible,
			At:      Point{X: legendX, Y: legendY + float64(i)*lineHeight},
		})
	}

	return c
}

// VisibleMarkers returns the markers that are drawn on the plot.
func (c PolarChart) VisibleMarkers() []Marker {
	var out []Marker
	for _, m := range c.Markers {
		if m.Polar.Visible {
			out = append(out, m)
		}
	}
	return out
}
