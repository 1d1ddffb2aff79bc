// Package ncgrid reads latitude/longitude grids from NetCDF files into
// interp.Grid values. Latitude and longitude axes are 1D variables and the
// data variable is 2D in either [lat, lon] or [lon, lat] order.
package ncgrid

import (
	"fmt"
	"math"
	"slices"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/skychart-api/internal/adapter/interp"
)

// Axis variable names tried in order.
var (
	LatNames = []string{"lat", "latitude", "y"}
	LonNames = []string{"lon", "longitude", "x"}
)

// File is an open grid file with its axes read.
type File struct {
	nc   netcdf.Dataset
	data netcdf.Var

	Lats []float64
	Lons []float64

	// latFirst is true for [lat, lon] data.
	latFirst bool
}

// Open opens a grid file and locates the first data variable in dataNames.
func Open(path string, dataNames []string) (*File, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	f := &File{nc: nc}
	if err := f.init(dataNames); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return f, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.nc.Close()
}

func (f *File) init(dataNames []string) error {
	var err error
	if f.Lats, err = f.readAxis(LatNames, "latitude"); err != nil {
		return err
	}
	if f.Lons, err = f.readAxis(LonNames, "longitude"); err != nil {
		return err
	}
	if len(f.Lats) < 2 || len(f.Lons) < 2 {
		return fmt.Errorf("grid must have at least 2 points along each axis")
	}
	if f.Lons[0] > f.Lons[len(f.Lons)-1] {
		return fmt.Errorf("longitudes must be increasing")
	}

	var ok bool
	if f.data, ok = findVar(f.nc, dataNames); !ok {
		return fmt.Errorf("data variable not found (tried: %v)", dataNames)
	}
	dims, err := f.data.Dims()
	if err != nil {
		return fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	dim0, err := dims[0].Len()
	if err != nil {
		return fmt.Errorf("failed to get dim0 length: %w", err)
	}
	dim1, err := dims[1].Len()
	if err != nil {
		return fmt.Errorf("failed to get dim1 length: %w", err)
	}

	nLat, nLon := uint64(len(f.Lats)), uint64(len(f.Lons))
	switch {
	case dim0 == nLat && dim1 == nLon:
		f.latFirst = true
	case dim0 == nLon && dim1 == nLat:
		f.latFirst = false
	default:
		return fmt.Errorf("dimension mismatch: data is [%d, %d], expected [%d, %d] or [%d, %d]",
			dim0, dim1, nLat, nLon, nLon, nLat)
	}
	return nil
}

func (f *File) readAxis(names []string, what string) ([]float64, error) {
	v, ok := findVar(f.nc, names)
	if !ok {
		return nil, fmt.Errorf("%s variable not found (tried: %v)", what, names)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s dimensions: %w", what, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D %s variable, got %dD", what, len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readSlab(v, []uint64{0}, []uint64{n})
}

// ReadAll reads the whole grid.
func (f *File) ReadAll() (*interp.Grid, error) {
	return f.read(0, len(f.Lats)-1, 0, len(f.Lons)-1)
}

// Window reads the part of the grid within margin degrees of a point,
// widened by one row and column on each side. Windows do not wrap across
// the longitude seam of the file.
func (f *File) Window(lat, lon, margin float64) (*interp.Grid, error) {
	x := f.Lons[0] + math.Mod(math.Mod(lon-f.Lons[0], 360)+360, 360)
	i0, i1 := span(f.Lats, lat-margin, lat+margin)
	j0, j1 := span(f.Lons, x-margin, x+margin)
	return f.read(i0, i1, j0, j1)
}

// span returns the index range of axis values within [lo, hi] plus one
// neighbour on each side. An empty range falls back to the values around
// the midpoint.
func span(axis []float64, lo, hi float64) (int, int) {
	first, last := -1, -1
	nearest, best := 0, math.Inf(1)
	mid := (lo + hi) / 2
	for i, v := range axis {
		if v >= lo && v <= hi {
			if first < 0 {
				first = i
			}
			last = i
		}
		if d := math.Abs(v - mid); d < best {
			nearest, best = i, d
		}
	}
	if first < 0 {
		first, last = nearest, nearest
	}
	return max(first-1, 0), min(last+1, len(axis)-1)
}

// read loads rows i0..i1 and columns j0..j1, both inclusive, and returns
// them with latitudes ascending.
func (f *File) read(i0, i1, j0, j1 int) (*interp.Grid, error) {
	nRows, nCols := i1-i0+1, j1-j0+1

	var values [][]float64
	if f.latFirst {
		flat, err := readSlab(f.data,
			[]uint64{uint64(i0), uint64(j0)},
			[]uint64{uint64(nRows), uint64(nCols)})
		if err != nil {
			return nil, err
		}
		values = reshape(flat, nRows, nCols)
	} else {
		flat, err := readSlab(f.data,
			[]uint64{uint64(j0), uint64(i0)},
			[]uint64{uint64(nCols), uint64(nRows)})
		if err != nil {
			return nil, err
		}
		values = transpose2D(reshape(flat, nCols, nRows))
	}

	grid := &interp.Grid{
		Lats:   slices.Clone(f.Lats[i0 : i1+1]),
		Lons:   slices.Clone(f.Lons[j0 : j1+1]),
		Values: values,
	}
	// Many models store latitude north to south.
	if grid.Lats[0] > grid.Lats[len(grid.Lats)-1] {
		slices.Reverse(grid.Lats)
		slices.Reverse(grid.Values)
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, true
		}
	}
	return netcdf.Var{}, false
}

// readSlab reads a hyperslab as float64, applying scale_factor and
// add_offset when present.
func readSlab(v netcdf.Var, start, count []uint64) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	n := 1
	for _, c := range count {
		n *= int(c)
	}
	out := make([]float64, n)

	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 data: %w", err)
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := v.ReadFloat32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 data: %w", err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := v.ReadInt16Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 data: %w", err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := v.ReadInt32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 data: %w", err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %v", varType)
	}

	scale, hasScale := floatAttr(v, "scale_factor")
	offset, hasOffset := floatAttr(v, "add_offset")
	if hasScale || hasOffset {
		if !hasScale || scale == 0 {
			scale = 1
		}
		for i := range out {
			out[i] = out[i]*scale + offset
		}
	}
	return out, nil
}

func floatAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf := make([]float64, 1)
	if err := a.ReadFloat64s(buf); err == nil {
		return buf[0], true
	}
	ibuf := make([]int32, 1)
	if err := a.ReadInt32s(ibuf); err == nil {
		return float64(ibuf[0]), true
	}
	return 0, false
}

func reshape(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}

// transpose2D transposes a 2D array.
func transpose2D(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}
	nRows, nCols := len(data), len(data[0])
	out := make([][]float64, nCols)
	for i := range nCols {
		out[i] = make([]float64, nRows)
		for j := range nRows {
			out[i][j] = data[j][i]
		}
	}
	return out
}
