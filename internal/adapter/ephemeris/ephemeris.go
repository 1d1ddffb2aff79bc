// Package ephemeris computes apparent equatorial positions of the Sun, the
// Moon and the major planets from mean orbital elements, and of Earth
// satellites from two-line element sets.
//
// Solar system positions use low-precision elements with the principal
// perturbations of the Moon, Jupiter, Saturn and Uranus. Accuracy is about
// one to two arcminutes for the planets, which is ample for a sky chart.
// Positions are referred to the equinox of date.
package ephemeris

import (
	"math"
	"time"

	"go.ngs.io/skychart-api/internal/domain"
)

// Body names resolved by the solar system provider.
const (
	Sun     = "Sun"
	Moon    = "Moon"
	Mercury = "Mercury"
	Venus   = "Venus"
	Mars    = "Mars"
	Jupiter = "Jupiter"
	Saturn  = "Saturn"
	Uranus  = "Uranus"
	Neptune = "Neptune"
)

// bodyOrder lists the Sun and the Moon, then the planets outward from the Sun.
var bodyOrder = []string{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune}

// dayNumberEpoch is the Julian Date of 1999-12-31T00:00:00Z, day 0 of the elements.
const dayNumberEpoch = 2451543.5

// SolarSystem resolves the Sun, the Moon and the planets. The zero value is
// ready to use and safe for concurrent use.
type SolarSystem struct {
	// Geocentric disables the topocentric correction of the Moon.
	Geocentric bool
}

var (
	_ domain.CelestialObjectProvider = SolarSystem{}
	_ domain.BodyLister              = SolarSystem{}
)

// Bodies implements domain.BodyLister.
func (SolarSystem) Bodies() []string {
	return append([]string(nil), bodyOrder...)
}

// Equatorial implements domain.CelestialObjectProvider.
func (s SolarSystem) Equatorial(name string, at time.Time, obs domain.Observer) (domain.EquatorialCoordinate, error) {
	body, ok := lookupBody(name)
	if !ok {
		return domain.EquatorialCoordinate{}, &domain.UnknownBodyError{Name: name}
	}

	d := DayNumber(at)
	var ra, dec float64
	switch body {
	case Sun:
		sun := sunPosition(d)
		ra, dec = eclipticToEquatorial(sun.x, sun.y, 0, d)
	case Moon:
		moon := moonPosition(d)
		ra, dec = eclipticToEquatorial(moon.x, moon.y, moon.z, d)
		if !s.Geocentric {
			ra, dec = topocentricMoon(ra, dec, moon.r, at, obs)
		}
	default:
		sun := sunPosition(d)
		p := planetPosition(body, d)
		ra, dec = eclipticToEquatorial(p.x+sun.x, p.y+sun.y, p.z, d)
	}

	return domain.EquatorialCoordinate{RAHours: ra, DecDeg: dec}, nil
}

// DayNumber returns the days elapsed since 1999-12-31T00:00:00Z, fractional.
func DayNumber(t time.Time) float64 {
	return domain.JulianDate(t) - dayNumberEpoch
}

func lookupBody(name string) (string, bool) {
	key := domain.NormalizeName(name)
	for _, b := range bodyOrder {
		if domain.NormalizeName(b) == key {
			return b, true
		}
	}
	return "", false
}

// sunPosition returns the geocentric ecliptic position of the Sun in AU.
func sunPosition(d float64) orbitPosition {
	return elementFuncs[Sun](d).positionInOrbit()
}

// planetPosition returns the heliocentric ecliptic position of a planet in AU.
func planetPosition(name string, d float64) orbitPosition {
	p := elementFuncs[name](d).positionInOrbit()

	// Mutual perturbations of the giant planets, in degrees.
	Mj := elementFuncs[Jupiter](d).M
	Ms := elementFuncs[Saturn](d).M
	Mu := elementFuncs[Uranus](d).M

	var dlon, dlat float64
	switch name {
	case Jupiter:
		dlon = -0.332*sind(2*Mj-5*Ms-67.6) -
			0.056*sind(2*Mj-2*Ms+21) +
			0.042*sind(3*Mj-5*Ms+21) -
			0.036*sind(Mj-2*Ms) +
			0.022*cosd(Mj-Ms) +
			0.023*sind(2*Mj-3*Ms+52) -
			0.016*sind(Mj-5*Ms-69)
	case Saturn:
		dlon = 0.812*sind(2*Mj-5*Ms-67.6) -
			0.229*cosd(2*Mj-4*Ms-2) +
			0.119*sind(Mj-2*Ms-3) +
			0.046*sind(2*Mj-6*Ms-69) +
			0.014*sind(Mj-3*Ms+32)
		dlat = -0.020*cosd(2*Mj-4*Ms-2) +
			0.018*sind(2*Mj-6*Ms-49)
	case Uranus:
		dlon = 0.040*sind(Ms-2*Mu+6) +
			0.035*sind(Ms-3*Mu+33) -
			0.015*sind(Mj-Mu+20)
	default:
		return p
	}

	return p.withSpherical(p.lon+dlon, p.lat+dlat, p.r)
}

// moonPosition returns the geocentric ecliptic position of the Moon in Earth radii.
func moonPosition(d float64) orbitPosition {
	moon := elementFuncs[Moon](d)
	sun := elementFuncs[Sun](d)
	p := moon.positionInOrbit()

	Ms := sun.M                    // Sun's mean anomaly.
	Mm := moon.M                   // Moon's mean anomaly.
	Ls := sun.M + sun.w            // Sun's mean longitude.
	Lm := moon.M + moon.w + moon.N // Moon's mean longitude.
	D := Lm - Ls                   // Mean elongation.
	F := Lm - moon.N               // Argument of latitude.

	// Evection, variation and the yearly equation lead.
	dlon := -1.274*sind(Mm-2*D) +
		0.658*sind(2*D) -
		0.186*sind(Ms) -
		0.059*sind(2*Mm-2*D) -
		0.057*sind(Mm-2*D+Ms) +
		0.053*sind(Mm+2*D) +
		0.046*sind(2*D-Ms) +
		0.041*sind(Mm-Ms) -
		0.035*sind(D) -
		0.031*sind(Mm+Ms) -
		0.015*sind(2*F-2*D) +
		0.011*sind(Mm-4*D)
	dlat := -0.173*sind(F-2*D) -
		0.055*sind(Mm-F-2*D) -
		0.046*sind(Mm+F-2*D) +
		0.033*sind(F+2*D) +
		0.017*sind(2*Mm+F)
	dr := -0.58*cosd(Mm-2*D) -
		0.46*cosd(2*D)

	return p.withSpherical(p.lon+dlon, p.lat+dlat, p.r+dr)
}

// topocentricMoon shifts the geocentric position of the Moon, at distance r
// Earth radii, to the position seen by obs.
func topocentricMoon(raHours, decDeg, r float64, at time.Time, obs domain.Observer) (float64, float64) {
	mpar := domain.Rad2Deg(math.Asin(1 / r))

	lat := obs.LatitudeDeg
	gclat := lat - 0.1924*sind(2*lat)
	rho := 0.99833 + 0.00167*cosd(2*lat)

	ra := raHours * 15
	ha := domain.LocalSiderealTime(at, obs.LongitudeDeg) - ra

	var topRA, topDec float64
	topRA = ra - mpar*rho*cosd(gclat)*sind(ha)/cosd(decDeg)
	if math.Abs(gclat) < 1e-9 {
		// Auxiliary angle g is zero on the equator.
		topDec = decDeg - mpar*rho*sind(-decDeg)*cosd(ha)
	} else {
		g := domain.Rad2Deg(math.Atan(math.Tan(domain.Deg2Rad(gclat)) / cosd(ha)))
		topDec = decDeg - mpar*rho*sind(gclat)*sind(g-decDeg)/sind(g)
	}

	return domain.Normalize360(topRA) / 15, math.Max(-90, math.Min(90, topDec))
}
