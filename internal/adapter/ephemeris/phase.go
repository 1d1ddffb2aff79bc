package ephemeris

import (
	"math"
	"time"

	"go.ngs.io/skychart-api/internal/domain"
)

// MoonPhase describes the geocentric illuminated state of the Moon.
type MoonPhase struct {
	// Illumination is the illuminated fraction of the disc in [0, 1].
	Illumination float64
	// ElongationDeg is the Sun-Moon angle seen from the Earth's centre.
	ElongationDeg float64
	// AgeDeg is the Moon's ecliptic longitude minus the Sun's, in [0, 360).
	AgeDeg float64
	Waxing bool
	Name   string
}

var phaseNames = [8]string{
	"new moon",
	"waxing crescent",
	"first quarter",
	"waxing gibbous",
	"full moon",
	"waning gibbous",
	"last quarter",
	"waning crescent",
}

// PhaseOfMoon returns the Moon's phase at the given instant.
func PhaseOfMoon(at time.Time) MoonPhase {
	d := DayNumber(at)
	sun := sunPosition(d)
	moon := moonPosition(d)

	age := domain.Normalize360(moon.lon - sun.lon)
	cosElong := cosd(moon.lat) * cosd(age)
	elong := domain.Rad2Deg(math.Acos(math.Max(-1, math.Min(1, cosElong))))

	bucket := int(math.Floor(domain.Normalize360(age+22.5)/45)) % len(phaseNames)
	return MoonPhase{
		Illumination:  (1 - cosElong) / 2,
		ElongationDeg: elong,
		AgeDeg:        age,
		Waxing:        age > 0 && age < 180,
		Name:          phaseNames[bucket],
	}
}
