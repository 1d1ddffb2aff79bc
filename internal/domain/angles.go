package domain

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Normalize360 maps an angle in degrees into [0, 360).
func Normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	// math.Mod of a tiny negative value can round up to exactly 360.
	if deg >= 360.0 || deg == 0 {
		// Also folds negative zero.
		deg = 0
	}
	return deg
}

// Normalize180 maps an angle in degrees into [-180, 180].
func Normalize180(deg float64) float64 {
	deg = Normalize360(deg)
	if deg > 180.0 {
		deg -= 360.0
	}
	return deg
}

// AngularSeparation returns the great-circle distance in degrees between two
// equatorial positions.
func AngularSeparation(a, b EquatorialCoordinate) float64 {
	ra1 := Deg2Rad(a.RAHours * 15.0)
	ra2 := Deg2Rad(b.RAHours * 15.0)
	dec1 := Deg2Rad(a.DecDeg)
	dec2 := Deg2Rad(b.DecDeg)

	// Haversine form stays accurate for small separations.
	sinDDec := math.Sin((dec2 - dec1) / 2)
	sinDRA := math.Sin((ra2 - ra1) / 2)
	h := sinDDec*sinDDec + math.Cos(dec1)*math.Cos(dec2)*sinDRA*sinDRA
	if h > 1 {
		h = 1
	}
	return Rad2Deg(2 * math.Asin(math.Sqrt(h)))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
