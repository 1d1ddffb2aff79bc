// Package terrain looks up ground elevation from a GEBCO style NetCDF grid
// (variable "elevation", metres above mean sea level, negative at sea).
package terrain

import (
	"errors"
	"fmt"
	"sync"

	"go.ngs.io/skychart-api/internal/adapter/interp"
	"go.ngs.io/skychart-api/internal/adapter/ncgrid"
)

// ErrNoData is returned for locations the grid does not cover.
var ErrNoData = errors.New("no terrain data at location")

// DefaultMargin is the half width in degrees of the window loaded around a
// lookup.
const DefaultMargin = 2.0

var dataNames = []string{"elevation", "data", "z"}

// Store loads a window of the grid around each lookup and reuses it while
// later lookups fall inside it. Global grids at 15 arc seconds are too large
// to hold in memory.
type Store struct {
	path   string
	margin float64

	mu    sync.Mutex
	grid  *interp.Grid
	loads int
}

// NewStore creates a store for the grid at path. A margin of zero or less
// means DefaultMargin.
func NewStore(path string, margin float64) *Store {
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Store{path: path, margin: margin}
}

// Elevation returns the interpolated grid value at a location.
func (s *Store) Elevation(lat, lon float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grid != nil {
		if v, err := s.grid.At(lat, lon); err == nil {
			return v, nil
		}
	}

	grid, err := s.loadWindow(lat, lon)
	if err != nil {
		return 0, err
	}
	s.grid = grid
	s.loads++

	v, err := grid.At(lat, lon)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	return v, nil
}

// GroundHeight returns the height of the ground above mean sea level.
// Sea and below sea level depressions count as sea level.
func (s *Store) GroundHeight(lat, lon float64) (float64, error) {
	v, err := s.Elevation(lat, lon)
	if err != nil {
		return 0, err
	}
	return max(v, 0), nil
}

func (s *Store) loadWindow(lat, lon float64) (*interp.Grid, error) {
	f, err := ncgrid.Open(s.path, dataNames)
	if err != nil {
		return nil, fmt.Errorf("failed to load terrain grid %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	grid, err := f.Window(lat, lon, s.margin)
	if err != nil {
		return nil, fmt.Errorf("failed to load terrain grid %s: %w", s.path, err)
	}
	return grid, nil
}
