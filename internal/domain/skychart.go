package domain

import (
	"errors"
	"fmt"
	"time"
)

// UnknownBodyPolicy decides what BuildSkyChart does with unresolvable names.
type UnknownBodyPolicy int

const (
	// FailOnUnknown aborts the chart with the provider's UnknownBodyError.
	FailOnUnknown UnknownBodyPolicy = iota
	// OmitUnknown skips the body and lists it in SkyChart.Omitted.
	OmitUnknown
)

// ParseUnknownBodyPolicy maps "fail" and "omit" to a policy. Empty means fail.
func ParseUnknownBodyPolicy(s string) (UnknownBodyPolicy, error) {
	switch NormalizeName(s) {
	case "", "fail":
		return FailOnUnknown, nil
	case "omit":
		return OmitUnknown, nil
	}
	return FailOnUnknown, fmt.Errorf("%w: unknown body policy %q (want fail or omit)", ErrInvalidArgument, s)
}

func (p UnknownBodyPolicy) String() string {
	if p == OmitUnknown {
		return "omit"
	}
	return "fail"
}

// Body pairs a display label with the provider that resolves Name.
type Body struct {
	Label    string
	Name     string
	Provider CelestialObjectProvider
}

// ChartEntry is one body placed on the chart.
type ChartEntry struct {
	Label      string
	Name       string
	Equatorial EquatorialCoordinate
	Horizontal HorizontalCoordinate
}

// SkyChart is the set of horizontal positions for one observer at one instant.
// Entry order is the rendering and legend order.
type SkyChart struct {
	Observer             Observer
	Instant              time.Time
	LocalSiderealTimeDeg float64
	Entries              []ChartEntry
	Omitted              []string
}

// Visible returns the entries at or above the horizon, in model order.
func (s SkyChart) Visible() []ChartEntry {
	var out []ChartEntry
	for _, e := range s.Entries {
		if e.Horizontal.AboveHorizon() {
			out = append(out, e)
		}
	}
	return out
}

// BuildSkyChart places every body for obs at the instant at. Local sidereal
// time is computed once so all entries share the same observer and instant.
func BuildSkyChart(obs Observer, at time.Time, bodies []Body, policy UnknownBodyPolicy) (SkyChart, error) {
	if !isFinite(obs.LatitudeDeg) || obs.LatitudeDeg < -90 || obs.LatitudeDeg > 90 {
		return SkyChart{}, invalid("latitude", obs.LatitudeDeg, "must be in [-90, 90] degrees")
	}
	if !isFinite(obs.LongitudeDeg) {
		return SkyChart{}, invalid("longitude", obs.LongitudeDeg, "must be finite")
	}

	at = at.UTC()
	lst := LocalSiderealTime(at, obs.LongitudeDeg)

	chart := SkyChart{
		Observer:             obs,
		Instant:              at,
		LocalSiderealTimeDeg: lst,
		Entries:              make([]ChartEntry, 0, len(bodies)),
	}

	for i, b := range bodies {
		if b.Provider == nil || NormalizeName(b.Name) == "" {
			return SkyChart{}, &InvalidArgumentError{
				Field:  "body",
				Value:  float64(i),
				Reason: "needs a name and a provider",
			}
		}

		eq, err := b.Provider.Equatorial(b.Name, at, obs)
		if err != nil {
			if policy == OmitUnknown && errors.Is(err, ErrUnknownBody) {
				chart.Omitted = append(chart.Omitted, b.Name)
				continue
			}
			return SkyChart{}, fmt.Errorf("resolve %s: %w", b.Name, err)
		}

		hz, err := EquatorialToHorizontal(eq, lst, obs.LatitudeDeg)
		if err != nil {
			return SkyChart{}, fmt.Errorf("transform %s: %w", b.Name, err)
		}

		label := b.Label
		if label == "" {
			label = b.Name
		}
		chart.Entries = append(chart.Entries, ChartEntry{
			Label:      label,
			Name:       b.Name,
			Equatorial: eq,
			Horizontal: hz,
		})
	}

	return chart, nil
}
