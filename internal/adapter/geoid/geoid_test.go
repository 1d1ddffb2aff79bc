package geoid

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
)

// createGeoidTestFile writes a [lat, lon] FLOAT grid named "geoid".
func createGeoidTestFile(t *testing.T, path string, latVals, lonVals []float64, values [][]float32) {
	t.Helper()
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = f.Close() }()

	latDim, _ := f.AddDim("lat", uint64(len(latVals)))
	lonDim, _ := f.AddDim("lon", uint64(len(lonVals)))
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	vgeoid, _ := f.AddVar("geoid", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vlat.WriteFloat64s(latVals); err != nil {
		t.Fatalf("write lat: %v", err)
	}
	if err := vlon.WriteFloat64s(lonVals); err != nil {
		t.Fatalf("write lon: %v", err)
	}
	flat := make([]float32, 0, len(latVals)*len(lonVals))
	for i := range values {
		flat = append(flat, values[i]...)
	}
	if err := vgeoid.WriteFloat32s(flat); err != nil {
		t.Fatalf("write geoid: %v", err)
	}
}

func TestUndulationInterpolates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoid.nc")
	createGeoidTestFile(t, path,
		[]float64{40, 50},
		[]float64{10, 20, 30},
		[][]float32{
			{40, 42, 44},
			{46, 48, 50},
		})

	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		lat, lon float64
		expected float64
	}{
		{40, 10, 40},
		{50, 30, 50},
		{45, 15, 44},
		{47.5, 19, 46.3},
	}
	for _, tt := range tests {
		got, err := store.Undulation(tt.lat, tt.lon)
		if err != nil {
			t.Fatalf("Undulation(%v, %v): %v", tt.lat, tt.lon, err)
		}
		if math.Abs(got-tt.expected) > 1e-4 {
			t.Errorf("Undulation(%v, %v) = %.5f, want %.5f", tt.lat, tt.lon, got, tt.expected)
		}
	}

	if _, err := store.Undulation(60, 15); err == nil {
		t.Error("expected error outside the grid")
	}
}

func TestUndulationNorthToSouthGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoid.nc")
	createGeoidTestFile(t, path,
		[]float64{50, 40},
		[]float64{10, 20},
		[][]float32{
			{10, 10},
			{20, 20},
		})

	got, err := NewStore(path).Undulation(40, 15)
	if err != nil {
		t.Fatalf("Undulation: %v", err)
	}
	if math.Abs(got-20) > 1e-4 {
		t.Errorf("expected 20 at the southern row, got %.5f", got)
	}
}

func TestUndulationMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.nc"))
	if _, err := store.Undulation(0, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
	// The load error is kept for later lookups.
	if err := store.Load(); err == nil {
		t.Fatal("expected cached load error")
	}
}
