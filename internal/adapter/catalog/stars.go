package catalog

import (
	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/domain"
)

func star(name string, raHours, decDeg float64) store.Star {
	return store.Star{Name: name, Position: domain.EquatorialCoordinate{RAHours: raHours, DecDeg: decDeg}}
}

// brightStars holds J2000 positions of bright navigational stars.
var brightStars = []store.Star{
	star("Vega", 18.615649, 38.78369),
	star("Sirius", 6.752569, -16.7161),
	star("Polaris", 2.5303, 89.2641),
	star("Arcturus", 14.261028, 19.1825),
	star("Capella", 5.278167, 45.998),
	star("Rigel", 5.242306, -8.2017),
	star("Betelgeuse", 5.919528, 7.4071),
	star("Altair", 19.846389, 8.8683),
	star("Deneb", 20.690528, 45.2803),
	star("Aldebaran", 4.598667, 16.5092),
	star("Antares", 16.490111, -26.4320),
	star("Spica", 13.419889, -11.1614),
	star("Regulus", 10.139528, 11.9672),
	star("Procyon", 7.655028, 5.2250),
	star("Canopus", 6.399194, -52.6958),
	star("Fomalhaut", 22.960833, -29.6222),
	star("Pollux", 7.755250, 28.0261),
}
