// Package geoid looks up geoid undulations from a NetCDF grid such as a
// resampled EGM2008 model, so observer heights given above mean sea level
// can be converted to heights above the WGS84 ellipsoid.
package geoid

import (
	"fmt"
	"sync"

	"go.ngs.io/skychart-api/internal/adapter/interp"
	"go.ngs.io/skychart-api/internal/adapter/ncgrid"
)

// dataNames are the geoid variable names tried in order.
var dataNames = []string{"geoid", "geoid_height", "N", "height", "z"}

// Store answers undulation lookups from one grid file. The grid is read in
// full on first use, which suits global models at 15 arc minutes or coarser.
type Store struct {
	path string

	mu   sync.Mutex
	grid *interp.Grid
	err  error
}

// NewStore creates a store for the grid at path. Nothing is read until the
// first lookup.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Undulation returns the geoid height N in metres at a location: the
// separation between the WGS84 ellipsoid and the geoid, positive when the
// geoid lies above the ellipsoid. An ellipsoidal height is h = H + N for an
// orthometric height H.
func (s *Store) Undulation(lat, lon float64) (float64, error) {
	grid, err := s.load()
	if err != nil {
		return 0, err
	}
	n, err := grid.At(lat, lon)
	if err != nil {
		return 0, fmt.Errorf("failed to interpolate geoid height: %w", err)
	}
	return n, nil
}

// Load reads the grid now instead of on the first lookup.
func (s *Store) Load() error {
	_, err := s.load()
	return err
}

func (s *Store) load() (*interp.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil && s.err == nil {
		s.grid, s.err = readGrid(s.path)
		if s.err != nil {
			s.err = fmt.Errorf("failed to load geoid grid %s: %w", s.path, s.err)
		}
	}
	return s.grid, s.err
}

func readGrid(path string) (*interp.Grid, error) {
	f, err := ncgrid.Open(path, dataNames)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.ReadAll()
}
