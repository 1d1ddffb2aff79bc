package ephemeris

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"go.ngs.io/skychart-api/internal/adapter/source"
	"go.ngs.io/skychart-api/internal/domain"
)

// WGS84 ellipsoid used to place the observer.
const (
	earthRadiusKm   = 6378.137
	earthFlattening = 1 / 298.257223563
)

// TLE is a named two-line element set.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// Validate checks line lengths, line numbers and checksums.
func (t TLE) Validate() error {
	for i, line := range []string{t.Line1, t.Line2} {
		if len(line) != 69 {
			return fmt.Errorf("tle %s line %d: expected 69 characters, got %d", t.Name, i+1, len(line))
		}
		if line[0] != byte('1'+i) || line[1] != ' ' {
			return fmt.Errorf("tle %s line %d: bad line number", t.Name, i+1)
		}
		if sum := tleChecksum(line); int(line[68]-'0') != sum {
			return fmt.Errorf("tle %s line %d: checksum mismatch (want %d)", t.Name, i+1, sum)
		}
	}
	if t.Line1[2:7] != t.Line2[2:7] {
		return fmt.Errorf("tle %s: catalog numbers differ", t.Name)
	}
	return nil
}

// tleChecksum sums the digits of the first 68 columns, counting '-' as 1.
func tleChecksum(line string) int {
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// ParseTLEs reads three-line sets: a name line followed by the two element lines.
func ParseTLEs(r io.Reader) ([]TLE, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read TLE data: %w", err)
	}
	if len(lines)%3 != 0 {
		return nil, fmt.Errorf("invalid TLE data: %d lines is not a multiple of 3", len(lines))
	}

	tles := make([]TLE, 0, len(lines)/3)
	for i := 0; i < len(lines); i += 3 {
		t := TLE{
			Name:  strings.TrimSpace(strings.TrimPrefix(lines[i], "0 ")),
			Line1: lines[i+1],
			Line2: lines[i+2],
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		tles = append(tles, t)
	}
	return tles, nil
}

// Satellites resolves Earth satellites by name. It is safe for concurrent
// use: each lookup propagates a copy of the parsed elements.
type Satellites struct {
	sats  map[string]satellite.Satellite
	names []string
}

var (
	_ domain.CelestialObjectProvider = (*Satellites)(nil)
	_ domain.BodyLister              = (*Satellites)(nil)
)

// NewSatellites parses every element set with the WGS72 gravity model.
func NewSatellites(tles []TLE) (*Satellites, error) {
	s := &Satellites{sats: make(map[string]satellite.Satellite, len(tles))}
	for _, t := range tles {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		key := domain.NormalizeName(t.Name)
		if key == "" {
			return nil, fmt.Errorf("tle with empty name")
		}
		if _, dup := s.sats[key]; dup {
			return nil, fmt.Errorf("duplicate satellite %s", t.Name)
		}
		s.sats[key] = satellite.TLEToSat(t.Line1, t.Line2, satellite.GravityWGS72)
		s.names = append(s.names, t.Name)
	}
	return s, nil
}

// LoadSatellites reads a TLE set from a file or an HTTP(S) URL.
func LoadSatellites(ctx context.Context, pathOrURL string) (*Satellites, error) {
	data, err := source.ReadAll(ctx, pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLE set: %w", err)
	}
	tles, err := ParseTLEs(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewSatellites(tles)
}

// Bodies implements domain.BodyLister.
func (s *Satellites) Bodies() []string {
	return append([]string(nil), s.names...)
}

// Equatorial implements domain.CelestialObjectProvider. The result is the
// topocentric direction from obs to the satellite.
func (s *Satellites) Equatorial(name string, at time.Time, obs domain.Observer) (domain.EquatorialCoordinate, error) {
	sat, ok := s.sats[domain.NormalizeName(name)]
	if !ok {
		return domain.EquatorialCoordinate{}, &domain.UnknownBodyError{Name: name}
	}

	pos, gmst := propagate(sat, at)
	if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) || (pos.X == 0 && pos.Y == 0 && pos.Z == 0) {
		return domain.EquatorialCoordinate{}, fmt.Errorf("propagation of %s failed at %s", name, at.UTC().Format(time.RFC3339))
	}

	ox, oy, oz := observerECI(obs, gmst)
	dx, dy, dz := pos.X-ox, pos.Y-oy, pos.Z-oz

	ra := domain.Normalize360(domain.Rad2Deg(math.Atan2(dy, dx)))
	dec := domain.Rad2Deg(math.Atan2(dz, math.Hypot(dx, dy)))
	return domain.EquatorialCoordinate{RAHours: ra / 15, DecDeg: dec}, nil
}

// propagate runs SGP4 to at and returns the position in km together with
// the Greenwich sidereal angle in radians used for the frame. The library
// takes whole seconds, so sub-second instants are interpolated linearly
// between the surrounding seconds.
func propagate(sat satellite.Satellite, at time.Time) (satellite.Vector3, float64) {
	at = at.UTC()
	whole := at.Truncate(time.Second)
	frac := float64(at.Sub(whole)) / float64(time.Second)

	pos, jd := propagateWhole(sat, whole)
	if frac > 0 {
		next, _ := propagateWhole(sat, whole.Add(time.Second))
		pos = satellite.Vector3{
			X: pos.X + (next.X-pos.X)*frac,
			Y: pos.Y + (next.Y-pos.Y)*frac,
			Z: pos.Z + (next.Z-pos.Z)*frac,
		}
		jd += frac / 86400
	}
	return pos, satellite.ThetaG_JD(jd)
}

func propagateWhole(sat satellite.Satellite, at time.Time) (satellite.Vector3, float64) {
	year, month, day := at.Date()
	hour, minute, sec := at.Clock()
	pos, _ := satellite.Propagate(sat, year, int(month), day, hour, minute, sec)
	return pos, satellite.JDay(year, int(month), day, hour, minute, sec)
}

// observerECI places the observer in the inertial frame, in km.
func observerECI(obs domain.Observer, gmst float64) (x, y, z float64) {
	lat := domain.Deg2Rad(obs.LatitudeDeg)
	lon := domain.Deg2Rad(obs.LongitudeDeg)
	h := obs.HeightM / 1000

	e2 := earthFlattening * (2 - earthFlattening)
	sinLat := math.Sin(lat)
	n := earthRadiusKm / math.Sqrt(1-e2*sinLat*sinLat)

	ex := (n + h) * math.Cos(lat) * math.Cos(lon)
	ey := (n + h) * math.Cos(lat) * math.Sin(lon)
	ez := (n*(1-e2) + h) * sinLat

	sinG, cosG := math.Sincos(gmst)
	return ex*cosG - ey*sinG, ex*sinG + ey*cosG, ez
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
