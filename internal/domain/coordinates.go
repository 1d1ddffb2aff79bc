package domain

// EquatorialCoordinate is a position on the celestial sphere.
type EquatorialCoordinate struct {
	RAHours float64 // Right ascension in hours, [0, 24).
	DecDeg  float64 // Declination in degrees, [-90, 90].
}

// Validate checks the coordinate ranges.
func (e EquatorialCoordinate) Validate() error {
	if !isFinite(e.RAHours) || e.RAHours < 0 || e.RAHours >= 24 {
		return invalid("right ascension", e.RAHours, "must be in [0, 24) hours")
	}
	if !isFinite(e.DecDeg) || e.DecDeg < -90 || e.DecDeg > 90 {
		return invalid("declination", e.DecDeg, "must be in [-90, 90] degrees")
	}
	return nil
}

// HorizontalCoordinate is a position relative to an observer's horizon.
type HorizontalCoordinate struct {
	AltitudeDeg float64 // 90 is the zenith, negative is below the horizon.
	AzimuthDeg  float64 // [0, 360), clockwise from true north.

	// AzimuthIndeterminate is set when the observer stands on a geographic
	// pole. AzimuthDeg is pinned to 0 in that case.
	AzimuthIndeterminate bool
}

// AboveHorizon reports whether the position is at or above the horizon.
func (h HorizontalCoordinate) AboveHorizon() bool {
	return h.AltitudeDeg >= 0
}
