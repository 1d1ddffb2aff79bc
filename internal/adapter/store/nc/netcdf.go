// Package nc provides access to star catalogs stored as NetCDF files.
//
// A catalog file has one dimension "star" and the double variables
// "ra_hours" and "dec_deg" along it. Star names are kept in the text
// attribute "names" of the "star" variable, one name per line.
package nc

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/domain"
)

const (
	starDimName  = "star"
	starVarName  = "star"
	raVarName    = "ra_hours"
	decVarName   = "dec_deg"
	namesAttr    = "names"
	nameSep      = "\n"
	epochAttr    = "epoch"
	defaultEpoch = "J2000"
)

// Store reads a NetCDF star catalog. Parsed files are cached by modification time.
type Store struct {
	path    string
	cache   []store.Star
	modTime int64
	mu      sync.RWMutex // Protect cache.
}

var _ store.CatalogLoader = (*Store)(nil)

// NewStore creates a new NetCDF catalog store.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// LoadStars loads every star in the file.
func (s *Store) LoadStars() ([]store.Star, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat NetCDF catalog: %w", err)
	}
	mod := info.ModTime().UnixNano()

	s.mu.RLock()
	if s.cache != nil && s.modTime == mod {
		stars := append([]store.Star(nil), s.cache...)
		s.mu.RUnlock()
		return stars, nil
	}
	s.mu.RUnlock()

	stars, err := readCatalog(s.path)
	if err != nil {
		return nil, err
	}

	// Cache the parsed catalog.
	s.mu.Lock()
	s.cache = stars
	s.modTime = mod
	s.mu.Unlock()

	return append([]store.Star(nil), stars...), nil
}

func readCatalog(path string) ([]store.Star, error) {
	//nolint:gosec // G304: File path comes from configuration.
	f, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	starVar, err := f.Var(starVarName)
	if err != nil {
		return nil, fmt.Errorf("star variable not found: %w", err)
	}
	names, err := readNames(starVar)
	if err != nil {
		return nil, err
	}

	raVar, err := f.Var(raVarName)
	if err != nil {
		return nil, fmt.Errorf("%s variable not found: %w", raVarName, err)
	}
	ra, err := readFloat64Var(raVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", raVarName, err)
	}

	decVar, err := f.Var(decVarName)
	if err != nil {
		return nil, fmt.Errorf("%s variable not found: %w", decVarName, err)
	}
	dec, err := readFloat64Var(decVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", decVarName, err)
	}

	if len(ra) != len(names) || len(dec) != len(names) {
		return nil, fmt.Errorf("catalog size mismatch: %d names, %d ra, %d dec", len(names), len(ra), len(dec))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no stars found in NetCDF catalog")
	}

	stars := make([]store.Star, len(names))
	for i, name := range names {
		pos := domain.EquatorialCoordinate{RAHours: ra[i], DecDeg: dec[i]}
		if err := pos.Validate(); err != nil {
			return nil, fmt.Errorf("star %s: %w", name, err)
		}
		stars[i] = store.Star{Name: name, Position: pos}
	}
	return stars, nil
}

func readNames(v netcdf.Var) ([]string, error) {
	a := v.Attr(namesAttr)
	n, err := a.Len()
	if err != nil {
		return nil, fmt.Errorf("names attribute not found: %w", err)
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return nil, fmt.Errorf("failed to read names attribute: %w", err)
	}

	text := strings.TrimRight(string(buf), "\x00")
	if text == "" {
		return nil, nil
	}
	names := strings.Split(text, nameSep)
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
		if names[i] == "" {
			return nil, fmt.Errorf("empty star name at index %d", i)
		}
	}
	return names, nil
}

// readFloat64Var reads a 1D variable as float64 regardless of its stored type.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}

	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// WriteCatalog writes stars to a new NetCDF file at path, replacing any
// existing file.
func WriteCatalog(path string, stars []store.Star) error {
	if len(stars) == 0 {
		return fmt.Errorf("no stars to write")
	}

	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dim, err := f.AddDim(starDimName, uint64(len(stars)))
	if err != nil {
		return fmt.Errorf("failed to add star dimension: %w", err)
	}
	dims := []netcdf.Dim{dim}

	starVar, err := f.AddVar(starVarName, netcdf.INT, dims)
	if err != nil {
		return fmt.Errorf("failed to add star variable: %w", err)
	}
	raVar, err := f.AddVar(raVarName, netcdf.DOUBLE, dims)
	if err != nil {
		return fmt.Errorf("failed to add %s variable: %w", raVarName, err)
	}
	decVar, err := f.AddVar(decVarName, netcdf.DOUBLE, dims)
	if err != nil {
		return fmt.Errorf("failed to add %s variable: %w", decVarName, err)
	}

	names := make([]string, len(stars))
	ids := make([]int32, len(stars))
	ra := make([]float64, len(stars))
	dec := make([]float64, len(stars))
	for i, s := range stars {
		if strings.Contains(s.Name, nameSep) || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("invalid star name %q", s.Name)
		}
		names[i] = s.Name
		ids[i] = int32(i)
		ra[i] = s.Position.RAHours
		dec[i] = s.Position.DecDeg
	}

	if err := starVar.Attr(namesAttr).WriteBytes([]byte(strings.Join(names, nameSep))); err != nil {
		return fmt.Errorf("failed to write names attribute: %w", err)
	}
	if err := starVar.Attr(epochAttr).WriteBytes([]byte(defaultEpoch)); err != nil {
		return fmt.Errorf("failed to write epoch attribute: %w", err)
	}

	if err := f.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	if err := starVar.WriteInt32s(ids); err != nil {
		return fmt.Errorf("failed to write star ids: %w", err)
	}
	if err := raVar.WriteFloat64s(ra); err != nil {
		return fmt.Errorf("failed to write %s: %w", raVarName, err)
	}
	if err := decVar.WriteFloat64s(dec); err != nil {
		return fmt.Errorf("failed to write %s: %w", decVarName, err)
	}
	return nil
}
