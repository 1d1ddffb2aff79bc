package usecase

import (
	"time"

	"github.com/sixdouglas/suncalc"

	"go.ngs.io/skychart-api/internal/adapter/ephemeris"
	"go.ngs.io/skychart-api/internal/domain"
)

// SunEvents are the day's solar events in the display time zone. Events the
// Sun does not reach on that day (polar day or night) are left empty.
type SunEvents struct {
	Dawn      string `json:"dawn,omitempty"`
	Sunrise   string `json:"sunrise,omitempty"`
	SolarNoon string `json:"solar_noon,omitempty"`
	Sunset    string `json:"sunset,omitempty"`
	Dusk      string `json:"dusk,omitempty"`
}

func (e SunEvents) empty() bool {
	return e == SunEvents{}
}

// MoonPhaseInfo is the Moon's geocentric phase.
type MoonPhaseInfo struct {
	Name          string  `json:"name"`
	Illumination  float64 `json:"illumination"`
	ElongationDeg float64 `json:"elongation_deg"`
	Waxing        bool    `json:"waxing"`
}

func sunEvents(at time.Time, obs domain.Observer, zone *time.Location) SunEvents {
	times := suncalc.GetTimes(at, obs.LatitudeDeg, domain.Normalize180(obs.LongitudeDeg))

	format := func(t time.Time) string {
		// Unreached events come back zero or far from the requested day.
		if t.IsZero() || t.Sub(at) > 48*time.Hour || at.Sub(t) > 48*time.Hour {
			return ""
		}
		return t.In(zone).Format(time.RFC3339)
	}

	return SunEvents{
		Dawn:      format(times["dawn"].Value),
		Sunrise:   format(times["sunrise"].Value),
		SolarNoon: format(times["solarNoon"].Value),
		Sunset:    format(times["sunset"].Value),
		Dusk:      format(times["dusk"].Value),
	}
}

func moonPhase(at time.Time) MoonPhaseInfo {
	p := ephemeris.PhaseOfMoon(at)
	return MoonPhaseInfo{
		Name:          p.Name,
		Illumination:  roundToDecimal(p.Illumination, 3),
		ElongationDeg: roundToDecimal(p.ElongationDeg, 2),
		Waxing:        p.Waxing,
	}
}
