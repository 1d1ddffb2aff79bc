// Package catalog resolves fixed stars from a static table.
package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/adapter/store/csv"
	"go.ngs.io/skychart-api/internal/adapter/store/nc"
	"go.ngs.io/skychart-api/internal/domain"
)

// Catalog is a read-only star table keyed by normalized name. Positions are
// J2000 and do not depend on the instant or the observer.
type Catalog struct {
	stars map[string]domain.EquatorialCoordinate
	names []string
}

var (
	_ domain.CelestialObjectProvider = (*Catalog)(nil)
	_ domain.BodyLister              = (*Catalog)(nil)
)

// New builds a catalog from stars. Later entries with the same name replace
// earlier ones but keep their original position in Bodies.
func New(stars []store.Star) (*Catalog, error) {
	c := &Catalog{stars: make(map[string]domain.EquatorialCoordinate, len(stars))}
	for _, s := range stars {
		if err := s.Position.Validate(); err != nil {
			return nil, fmt.Errorf("star %s: %w", s.Name, err)
		}
		key := domain.NormalizeName(s.Name)
		if key == "" {
			return nil, fmt.Errorf("star with empty name")
		}
		if _, dup := c.stars[key]; !dup {
			c.names = append(c.names, strings.TrimSpace(s.Name))
		}
		c.stars[key] = s.Position
	}
	return c, nil
}

// Builtin returns the catalog of bright reference stars shipped with the service.
func Builtin() *Catalog {
	c, err := New(brightStars)
	if err != nil {
		panic(err)
	}
	return c
}

// BuiltinStars returns a copy of the builtin star list.
func BuiltinStars() []store.Star {
	return append([]store.Star(nil), brightStars...)
}

// Load reads a catalog file. Files ending in .nc are NetCDF, everything else CSV.
// The builtin stars are merged underneath the file contents.
func Load(path string) (*Catalog, error) {
	var loader store.CatalogLoader
	if strings.EqualFold(filepath.Ext(path), ".nc") {
		loader = nc.NewStore(path)
	} else {
		loader = csv.NewCatalogStore(path)
	}

	stars, err := loader.LoadStars()
	if err != nil {
		return nil, fmt.Errorf("failed to load star catalog: %w", err)
	}

	all := make([]store.Star, 0, len(brightStars)+len(stars))
	all = append(all, brightStars...)
	all = append(all, stars...)
	return New(all)
}

// Equatorial implements domain.CelestialObjectProvider.
func (c *Catalog) Equatorial(name string, _ time.Time, _ domain.Observer) (domain.EquatorialCoordinate, error) {
	eq, ok := c.stars[domain.NormalizeName(name)]
	if !ok {
		return domain.EquatorialCoordinate{}, &domain.UnknownBodyError{Name: name}
	}
	return eq, nil
}

// Bodies implements domain.BodyLister.
func (c *Catalog) Bodies() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of stars.
func (c *Catalog) Len() int {
	return len(c.names)
}
