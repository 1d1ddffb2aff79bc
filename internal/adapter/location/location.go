// Package location is the directory of named observing sites.
package location

import (
	"errors"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata" // Zones must resolve on hosts without a zoneinfo database.

	"go.ngs.io/skychart-api/internal/domain"
)

// ErrUnknownLocation is returned for names missing from the directory.
var ErrUnknownLocation = errors.New("unknown location")

// Location is a named site with its civil time zone. HeightM is above mean
// sea level.
type Location struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	HeightM  float64 `json:"height_m"`
	TimeZone string  `json:"time_zone"`
}

// Observer returns the domain observer for the site.
func (l Location) Observer() (domain.Observer, error) {
	return domain.NewObserver(l.Name, l.Lat, l.Lon, l.HeightM)
}

// Zone loads the site's time zone, falling back to UTC.
func (l Location) Zone() *time.Location {
	if l.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Directory is a read-only table of locations.
type Directory struct {
	byID map[string]Location
}

// NewDirectory indexes locations by normalized ID and name.
func NewDirectory(locs []Location) (*Directory, error) {
	d := &Directory{byID: make(map[string]Location, len(locs))}
	for _, l := range locs {
		if _, err := l.Observer(); err != nil {
			return nil, fmt.Errorf("location %s: %w", l.ID, err)
		}
		if _, err := time.LoadLocation(l.TimeZone); err != nil {
			return nil, fmt.Errorf("location %s: %w", l.ID, err)
		}
		key := domain.NormalizeName(l.ID)
		if _, dup := d.byID[key]; dup {
			return nil, fmt.Errorf("duplicate location %s", l.ID)
		}
		d.byID[key] = l
	}
	return d, nil
}

// Default returns the directory of built-in cities.
func Default() *Directory {
	d, err := NewDirectory(cities)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup finds a location by ID or display name, ignoring case.
func (d *Directory) Lookup(name string) (Location, error) {
	key := domain.NormalizeName(name)
	if l, ok := d.byID[key]; ok {
		return l, nil
	}
	for _, l := range d.byID {
		if domain.NormalizeName(l.Name) == key {
			return l, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
}

// List returns all locations sorted by ID.
func (d *Directory) List() []Location {
	out := make([]Location, 0, len(d.byID))
	for _, l := range d.byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var cities = []Location{
	{ID: "toronto", Name: "Toronto", Lat: 43.6532, Lon: -79.3832, HeightM: 76, TimeZone: "America/Toronto"},
	{ID: "new-york", Name: "New York", Lat: 40.7128, Lon: -74.0060, HeightM: 10, TimeZone: "America/New_York"},
	{ID: "london", Name: "London", Lat: 51.5074, Lon: -0.1278, HeightM: 11, TimeZone: "Europe/London"},
	{ID: "budapest", Name: "Budapest", Lat: 47.4979, Lon: 19.0402, HeightM: 96, TimeZone: "Europe/Budapest"},
	{ID: "tokyo", Name: "Tokyo", Lat: 35.6895, Lon: 139.6917, HeightM: 40, TimeZone: "Asia/Tokyo"},
}
