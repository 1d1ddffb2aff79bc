// Package store defines the star catalog file loaders.
package store

import "go.ngs.io/skychart-api/internal/domain"

// Star is one fixed star from a catalog file. Positions are J2000.
type Star struct {
	Name     string
	Position domain.EquatorialCoordinate
}

// CatalogLoader is the interface for reading a star catalog file.
type CatalogLoader interface {
	// LoadStars reads every star in the file, in file order.
	LoadStars() ([]Star, error)
}
