package ephemeris

import (
	"math"

	"go.ngs.io/skychart-api/internal/domain"
)

// orbitalElements are mean elements at a day number d. Angles are degrees,
// the semi-major axis is AU (Earth radii for the Moon).
type orbitalElements struct {
	N float64 // Longitude of the ascending node.
	i float64 // Inclination to the ecliptic.
	w float64 // Argument of perihelion.
	a float64 // Semi-major axis.
	e float64 // Eccentricity.
	M float64 // Mean anomaly.
}

// elementFuncs gives the mean elements of each body as linear functions of d.
var elementFuncs = map[string]func(d float64) orbitalElements{
	Sun: func(d float64) orbitalElements {
		return orbitalElements{
			N: 0, i: 0,
			w: 282.9404 + 4.70935e-5*d,
			a: 1.0,
			e: 0.016709 - 1.151e-9*d,
			M: 356.0470 + 0.9856002585*d,
		}
	},
	Moon: func(d float64) orbitalElements {
		return orbitalElements{
			N: 125.1228 - 0.0529538083*d,
			i: 5.1454,
			w: 318.0634 + 0.1643573223*d,
			a: 60.2666,
			e: 0.054900,
			M: 115.3654 + 13.0649929509*d,
		}
	},
	Mercury: func(d float64) orbitalElements {
		return orbitalElements{
			N: 48.3313 + 3.24587e-5*d,
			i: 7.0047 + 5.00e-8*d,
			w: 29.1241 + 1.01444e-5*d,
			a: 0.387098,
			e: 0.205635 + 5.59e-10*d,
			M: 168.6562 + 4.0923344368*d,
		}
	},
	Venus: func(d float64) orbitalElements {
		return orbitalElements{
			N: 76.6799 + 2.46590e-5*d,
			i: 3.3946 + 2.75e-8*d,
			w: 54.8910 + 1.38374e-5*d,
			a: 0.723330,
			e: 0.006773 - 1.302e-9*d,
			M: 48.0052 + 1.6021302244*d,
		}
	},
	Mars: func(d float64) orbitalElements {
		return orbitalElements{
			N: 49.5574 + 2.11081e-5*d,
			i: 1.8497 - 1.78e-8*d,
			w: 286.5016 + 2.92961e-5*d,
			a: 1.523688,
			e: 0.093405 + 2.516e-9*d,
			M: 18.6021 + 0.5240207766*d,
		}
	},
	Jupiter: func(d float64) orbitalElements {
		return orbitalElements{
			N: 100.4542 + 2.76854e-5*d,
			i: 1.3030 - 1.557e-7*d,
			w: 273.8777 + 1.64505e-5*d,
			a: 5.20256,
			e: 0.048498 + 4.469e-9*d,
			M: 19.8950 + 0.0830853001*d,
		}
	},
	Saturn: func(d float64) orbitalElements {
		return orbitalElements{
			N: 113.6634 + 2.38980e-5*d,
			i: 2.4886 - 1.081e-7*d,
			w: 339.3939 + 2.97661e-5*d,
			a: 9.55475,
			e: 0.055546 - 9.499e-9*d,
			M: 316.9670 + 0.0334442282*d,
		}
	},
	Uranus: func(d float64) orbitalElements {
		return orbitalElements{
			N: 74.0005 + 1.3978e-5*d,
			i: 0.7733 + 1.9e-8*d,
			w: 96.6612 + 3.0565e-5*d,
			a: 19.18171 - 1.55e-8*d,
			e: 0.047318 + 7.45e-9*d,
			M: 142.5905 + 0.011725806*d,
		}
	},
	Neptune: func(d float64) orbitalElements {
		return orbitalElements{
			N: 131.7806 + 3.0173e-5*d,
			i: 1.7700 - 2.55e-7*d,
			w: 272.8461 - 6.027e-6*d,
			a: 30.05826 + 3.313e-8*d,
			e: 0.008606 + 2.15e-9*d,
			M: 260.2471 + 0.005995147*d,
		}
	},
}

// eccentricAnomaly solves Kepler's equation M = E - e sin E by Newton
// iteration. M is degrees, the result radians.
func eccentricAnomaly(meanAnomalyDeg, e float64) float64 {
	m := domain.Deg2Rad(domain.Normalize360(meanAnomalyDeg))
	E := m + e*math.Sin(m)*(1+e*math.Cos(m))
	for k := 0; k < 30; k++ {
		dE := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// orbitPosition is a position on an orbit in ecliptic rectangular
// coordinates, plus its spherical form.
type orbitPosition struct {
	x, y, z float64
	r       float64
	lon     float64 // Ecliptic longitude, degrees.
	lat     float64 // Ecliptic latitude, degrees.
}

// positionInOrbit returns the position relative to the orbit's focus.
func (el orbitalElements) positionInOrbit() orbitPosition {
	E := eccentricAnomaly(el.M, el.e)
	xv := el.a * (math.Cos(E) - el.e)
	yv := el.a * math.Sqrt(1-el.e*el.e) * math.Sin(E)

	v := math.Atan2(yv, xv)
	r := math.Hypot(xv, yv)

	N := domain.Deg2Rad(el.N)
	i := domain.Deg2Rad(el.i)
	vw := v + domain.Deg2Rad(el.w)

	x := r * (math.Cos(N)*math.Cos(vw) - math.Sin(N)*math.Sin(vw)*math.Cos(i))
	y := r * (math.Sin(N)*math.Cos(vw) + math.Cos(N)*math.Sin(vw)*math.Cos(i))
	z := r * math.Sin(vw) * math.Sin(i)

	return orbitPosition{
		x: x, y: y, z: z,
		r:   r,
		lon: domain.Normalize360(domain.Rad2Deg(math.Atan2(y, x))),
		lat: domain.Rad2Deg(math.Atan2(z, math.Hypot(x, y))),
	}
}

// withSpherical rebuilds the rectangular coordinates after lon, lat or r change.
func (p orbitPosition) withSpherical(lonDeg, latDeg, r float64) orbitPosition {
	lon := domain.Deg2Rad(lonDeg)
	lat := domain.Deg2Rad(latDeg)
	return orbitPosition{
		x:   r * math.Cos(lon) * math.Cos(lat),
		y:   r * math.Sin(lon) * math.Cos(lat),
		z:   r * math.Sin(lat),
		r:   r,
		lon: domain.Normalize360(lonDeg),
		lat: latDeg,
	}
}

// obliquity returns the obliquity of the ecliptic in degrees at day number d.
func obliquity(d float64) float64 {
	return 23.4393 - 3.563e-7*d
}

// eclipticToEquatorial rotates ecliptic rectangular coordinates to RA in
// hours and declination in degrees.
func eclipticToEquatorial(x, y, z, d float64) (raHours, decDeg float64) {
	ecl := domain.Deg2Rad(obliquity(d))
	xe := x
	ye := y*math.Cos(ecl) - z*math.Sin(ecl)
	ze := y*math.Sin(ecl) + z*math.Cos(ecl)

	ra := domain.Normalize360(domain.Rad2Deg(math.Atan2(ye, xe)))
	dec := domain.Rad2Deg(math.Atan2(ze, math.Hypot(xe, ye)))
	return ra / 15.0, dec
}

func sind(x float64) float64 { return math.Sin(domain.Deg2Rad(x)) }
func cosd(x float64) float64 { return math.Cos(domain.Deg2Rad(x)) }
