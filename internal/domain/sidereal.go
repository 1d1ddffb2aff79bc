package domain

import "time"

const (
	// JulianDateUnixEpoch is the Julian Date of 1970-01-01T00:00:00Z.
	JulianDateUnixEpoch = 2440587.5
	// JulianDateJ2000 is the Julian Date of the J2000.0 epoch.
	JulianDateJ2000 = 2451545.0

	secondsPerDay = 86400.0
	// Unix time of 2000-01-01T12:00:00Z.
	unixJ2000 = 946728000
)

// JulianDate returns the Julian Date of t with sub-second precision.
func JulianDate(t time.Time) float64 {
	return JulianDateJ2000 + daysSinceJ2000(t)
}

// daysSinceJ2000 keeps the integer part of the offset exact so that the
// sidereal polynomial does not lose precision near the present epoch.
func daysSinceJ2000(t time.Time) float64 {
	t = t.UTC()
	secs := t.Unix() - unixJ2000
	return (float64(secs) + float64(t.Nanosecond())/1e9) / secondsPerDay
}

// GreenwichMeanSiderealTime returns GMST in degrees, [0, 360).
// IAU 1982 polynomial in Julian centuries since J2000.0.
func GreenwichMeanSiderealTime(t time.Time) float64 {
	d := daysSinceJ2000(t)
	T := d / 36525.0

	gmst := 280.46061837 +
		360.98564736629*d +
		0.000387933*T*T -
		T*T*T/38710000.0

	return Normalize360(gmst)
}

// LocalSiderealTime returns LST in degrees, [0, 360), for an east-positive
// longitude in degrees.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return Normalize360(GreenwichMeanSiderealTime(t) + lonDeg)
}

// LocalSiderealTimeHours is LocalSiderealTime expressed in hours, [0, 24).
func LocalSiderealTimeHours(t time.Time, lonDeg float64) float64 {
	return LocalSiderealTime(t, lonDeg) / 15.0
}
