package domain

import "math"

// poleEpsilon is the distance from ±90° latitude treated as standing on a pole.
const poleEpsilon = 1e-9

// EquatorialToHorizontal converts an equatorial position to the horizontal
// frame of an observer at latitude latDeg, given local sidereal time in degrees.
//
// Azimuth is measured clockwise from north: 0 = N, 90 = E, 180 = S, 270 = W.
// On a geographic pole the azimuth has no meaning; it is pinned to 0 and the
// result is flagged AzimuthIndeterminate.
func EquatorialToHorizontal(eq EquatorialCoordinate, lstDeg, latDeg float64) (HorizontalCoordinate, error) {
	if err := eq.Validate(); err != nil {
		return HorizontalCoordinate{}, err
	}
	if !isFinite(latDeg) || latDeg < -90 || latDeg > 90 {
		return HorizontalCoordinate{}, invalid("latitude", latDeg, "must be in [-90, 90] degrees")
	}
	if !isFinite(lstDeg) {
		return HorizontalCoordinate{}, invalid("local sidereal time", lstDeg, "must be finite")
	}

	// Hour angle, west of the meridian.
	ha := Deg2Rad(Normalize180(lstDeg - eq.RAHours*15.0))
	dec := Deg2Rad(eq.DecDeg)
	lat := Deg2Rad(latDeg)

	sinDec, cosDec := math.Sincos(dec)
	sinLat, cosLat := math.Sincos(lat)
	sinHA, cosHA := math.Sincos(ha)

	sinAlt := sinDec*sinLat + cosDec*cosLat*cosHA
	sinAlt = math.Max(-1, math.Min(1, sinAlt))
	alt := Rad2Deg(math.Asin(sinAlt))

	if math.Abs(math.Abs(latDeg)-90) <= poleEpsilon {
		return HorizontalCoordinate{
			AltitudeDeg:          alt,
			AzimuthDeg:           0,
			AzimuthIndeterminate: true,
		}, nil
	}

	az := math.Atan2(-sinHA*cosDec, sinDec*cosLat-cosDec*sinLat*cosHA)

	return HorizontalCoordinate{
		AltitudeDeg: alt,
		AzimuthDeg:  Normalize360(Rad2Deg(az)),
	}, nil
}
