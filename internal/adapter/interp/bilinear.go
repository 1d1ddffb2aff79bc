// Package interp interpolates values on regular latitude/longitude grids.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// GridCell is one rectangle of a grid with its four corner values.
type GridCell struct {
	X0, X1 float64 // Longitude bounds.
	Y0, Y1 float64 // Latitude bounds.

	// V00 is at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
	V00, V10, V01, V11 float64
}

// BilinearInterpolate interpolates within a cell:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// where t = (x - x0) / (x1 - x0) and u = (y - y0) / (y1 - y0).
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	if cell.X1 <= cell.X0 {
		return 0, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	t := math.Max(0, math.Min(1, (x-cell.X0)/(cell.X1-cell.X0)))
	u := math.Max(0, math.Min(1, (y-cell.Y0)/(cell.Y1-cell.Y0)))

	return (1-t)*(1-u)*cell.V00 +
		t*(1-u)*cell.V10 +
		(1-t)*u*cell.V01 +
		t*u*cell.V11, nil
}

// Grid is a regular geographic grid. Values[i][j] is the value at
// (Lats[i], Lons[j]). Both axes are strictly increasing and the longitude
// axis spans at most one turn.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64
}

// Validate checks the grid shape and axis ordering.
func (g *Grid) Validate() error {
	if len(g.Lats) < 2 {
		return fmt.Errorf("grid must have at least 2 latitudes")
	}
	if len(g.Lons) < 2 {
		return fmt.Errorf("grid must have at least 2 longitudes")
	}
	if len(g.Values) != len(g.Lats) {
		return fmt.Errorf("number of value rows (%d) must match latitudes (%d)", len(g.Values), len(g.Lats))
	}
	for i, row := range g.Values {
		if len(row) != len(g.Lons) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.Lons))
		}
	}
	if !strictlyIncreasing(g.Lats) {
		return fmt.Errorf("latitudes must be strictly increasing")
	}
	if !strictlyIncreasing(g.Lons) {
		return fmt.Errorf("longitudes must be strictly increasing")
	}
	if g.Lons[len(g.Lons)-1]-g.Lons[0] > 360 {
		return fmt.Errorf("longitudes span more than 360 degrees")
	}
	return nil
}

func strictlyIncreasing(axis []float64) bool {
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return false
		}
	}
	return true
}

// At interpolates the grid at a point. Longitudes are matched modulo 360,
// so a 0..360 grid answers -180..180 queries. A global grid without a
// repeated seam column interpolates across the seam.
func (g *Grid) At(lat, lon float64) (float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, fmt.Errorf("coordinates must be finite")
	}
	last := len(g.Lons) - 1

	i, ok := bracket(g.Lats, lat)
	if !ok {
		return 0, fmt.Errorf("latitude %.6f is outside grid range [%.6f, %.6f]", lat, g.Lats[0], g.Lats[len(g.Lats)-1])
	}

	// Shift lon into [Lons[0], Lons[0]+360).
	x := g.Lons[0] + math.Mod(math.Mod(lon-g.Lons[0], 360)+360, 360)

	cell := GridCell{Y0: g.Lats[i], Y1: g.Lats[i+1]}
	if j, ok := bracket(g.Lons, x); ok {
		cell.X0, cell.X1 = g.Lons[j], g.Lons[j+1]
		cell.V00, cell.V10 = g.Values[i][j], g.Values[i][j+1]
		cell.V01, cell.V11 = g.Values[i+1][j], g.Values[i+1][j+1]
	} else if g.wrapsAround() {
		cell.X0, cell.X1 = g.Lons[last], g.Lons[0]+360
		cell.V00, cell.V10 = g.Values[i][last], g.Values[i][0]
		cell.V01, cell.V11 = g.Values[i+1][last], g.Values[i+1][0]
	} else {
		return 0, fmt.Errorf("longitude %.6f is outside grid range [%.6f, %.6f]", lon, g.Lons[0], g.Lons[last])
	}

	return BilinearInterpolate(cell, x, lat)
}

// wrapsAround reports whether the gap between the last and the first
// longitude, taken across the seam, is no wider than an ordinary step.
func (g *Grid) wrapsAround() bool {
	last := len(g.Lons) - 1
	step := (g.Lons[last] - g.Lons[0]) / float64(last)
	gap := g.Lons[0] + 360 - g.Lons[last]
	return gap > 0 && gap <= step*1.5
}

// bracket returns i such that axis[i] <= v <= axis[i+1].
func bracket(axis []float64, v float64) (int, bool) {
	n := len(axis)
	if v < axis[0] || v > axis[n-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i == 0 {
		return 0, true
	}
	return i - 1, true
}
