package domain

// Observer is a geographic observing site. Longitude is east-positive.
type Observer struct {
	Name         string
	LatitudeDeg  float64
	LongitudeDeg float64
	HeightM      float64 // Height above the reference ellipsoid.
}

// NewObserver validates the site coordinates and returns the observer.
// Longitudes may be given in [-180, 180] or [0, 360).
func NewObserver(name string, latDeg, lonDeg, heightM float64) (Observer, error) {
	if !isFinite(latDeg) || latDeg < -90 || latDeg > 90 {
		return Observer{}, invalid("latitude", latDeg, "must be in [-90, 90] degrees")
	}
	if !isFinite(lonDeg) || lonDeg < -180 || lonDeg >= 360 {
		return Observer{}, invalid("longitude", lonDeg, "must be in [-180, 360) degrees")
	}
	if !isFinite(heightM) {
		return Observer{}, invalid("height", heightM, "must be finite")
	}
	return Observer{
		Name:         name,
		LatitudeDeg:  latDeg,
		LongitudeDeg: lonDeg,
		HeightM:      heightM,
	}, nil
}
