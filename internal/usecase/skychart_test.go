package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sixdouglas/suncalc"

	"go.ngs.io/skychart-api/internal/adapter/catalog"
	"go.ngs.io/skychart-api/internal/adapter/ephemeris"
	"go.ngs.io/skychart-api/internal/adapter/history"
	"go.ngs.io/skychart-api/internal/adapter/location"
	"go.ngs.io/skychart-api/internal/adapter/terrain"
	"go.ngs.io/skychart-api/internal/domain"
	"go.ngs.io/skychart-api/internal/observability"
)

var fixedInstant = time.Date(2024, 6, 21, 21, 0, 0, 0, time.UTC)

type recordingMetrics struct {
	outcomes []string
	unknown  int
}

func (m *recordingMetrics) ObserveChart(outcome string, _ int, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) AddUnknownBodies(n int) { m.unknown += n }

func newTestUseCase(t *testing.T, hist history.Store, metrics Metrics) *SkyChartUseCase {
	t.Helper()
	providers := domain.ProviderChain{ephemeris.SolarSystem{}, catalog.Builtin()}
	return NewSkyChartUseCase(providers, location.Default(), hist, Options{
		Metrics: metrics,
		Now:     func() time.Time { return fixedInstant },
	})
}

func ptr(v float64) *float64 { return &v }

func findBody(t *testing.T, resp *ChartResponse, name string) BodyPosition {
	t.Helper()
	for _, b := range resp.Bodies {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("body %s not in chart", name)
	return BodyPosition{}
}

func TestSnapshot_DefaultBodies(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)

	resp, err := uc.Snapshot(context.Background(), ChartRequest{City: "Budapest"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(resp.Bodies) != len(DefaultBodies) {
		t.Fatalf("expected %d bodies, got %d", len(DefaultBodies), len(resp.Bodies))
	}
	for i, name := range DefaultBodies {
		if resp.Bodies[i].Name != name {
			t.Errorf("body %d: expected %s, got %s", i, name, resp.Bodies[i].Name)
		}
	}
	if resp.Bodies[0].Label != "Sun" || resp.Bodies[7].Label != "Vega" {
		t.Errorf("unexpected labels: %s, %s", resp.Bodies[0].Label, resp.Bodies[7].Label)
	}
	if resp.Time != "2024-06-21T21:00:00Z" {
		t.Errorf("Time: got %s", resp.Time)
	}
	if resp.TimeZone != "Europe/Budapest" || resp.LocalTime != "2024-06-21T23:00:00+02:00" {
		t.Errorf("zone: got %s %s", resp.TimeZone, resp.LocalTime)
	}
	if resp.Observer.City != "budapest" || resp.Observer.Name != "Budapest" {
		t.Errorf("observer: got %+v", resp.Observer)
	}

	polaris := findBody(t, resp, "polaris")
	if math.Abs(polaris.AltitudeDeg-47.4979) > 1.2 {
		t.Errorf("Polaris altitude: expected about 47.5, got %.4f", polaris.AltitudeDeg)
	}
	sun := findBody(t, resp, "sun")
	if sun.Visible || sun.AltitudeDeg >= 0 {
		t.Errorf("Sun should be below the horizon at 23:00 local, got %.4f", sun.AltitudeDeg)
	}
	if resp.MoonPhase == nil || resp.SunEvents == nil {
		t.Fatalf("expected almanac data, got %+v %+v", resp.MoonPhase, resp.SunEvents)
	}
	if resp.LocalSiderealTimeHours < 0 || resp.LocalSiderealTimeHours >= 24 {
		t.Errorf("LST out of range: %v", resp.LocalSiderealTimeHours)
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	req := ChartRequest{Lat: ptr(43.6532), Lon: ptr(-79.3832), Name: "Toronto", Time: fixedInstant}

	a, err := uc.Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	b, err := uc.Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for i := range a.Bodies {
		if a.Bodies[i] != b.Bodies[i] {
			t.Errorf("body %d differs: %+v vs %+v", i, a.Bodies[i], b.Bodies[i])
		}
	}
	if a.TimeZone != "UTC" {
		t.Errorf("coordinate observers default to UTC, got %s", a.TimeZone)
	}
}

func TestSnapshot_SunMatchesSuncalc(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	lat, lon := 47.4979, 19.0402

	for h := 0; h < 24; h += 3 {
		at := time.Date(2024, 3, 10, h, 0, 0, 0, time.UTC)
		resp, err := uc.Snapshot(context.Background(), ChartRequest{
			Lat: ptr(lat), Lon: ptr(lon), Time: at, Bodies: []string{"sun"},
		})
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		pos := suncalc.GetPosition(at, lat, lon)
		want := pos.Altitude * 180 / math.Pi
		if got := resp.Bodies[0].AltitudeDeg; math.Abs(got-want) > 1 {
			t.Errorf("%s: sun altitude %.3f, suncalc %.3f", at.Format(time.RFC3339), got, want)
		}
	}
}

func TestSnapshot_Hungarian(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)

	resp, err := uc.Snapshot(context.Background(), ChartRequest{City: "budapest", Lang: "hu"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.Bodies[0].Label != "Nap" || resp.Bodies[1].Label != "Hold" {
		t.Errorf("expected Hungarian labels, got %s, %s", resp.Bodies[0].Label, resp.Bodies[1].Label)
	}
	if resp.Meta["lang"] != "hu" {
		t.Errorf("lang: got %s", resp.Meta["lang"])
	}

	resp, err = uc.Snapshot(context.Background(), ChartRequest{City: "budapest", AcceptLanguage: "hu-HU,hu;q=0.9,en;q=0.5"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.Bodies[0].Label != "Nap" {
		t.Errorf("Accept-Language: expected Nap, got %s", resp.Bodies[0].Label)
	}
}

func TestSnapshot_TimeZoneOverride(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	resp, err := uc.Snapshot(context.Background(), ChartRequest{City: "tokyo", TimeZone: "UTC"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.TimeZone != "UTC" || resp.LocalTime != resp.Time {
		t.Errorf("expected UTC display, got %s %s", resp.TimeZone, resp.LocalTime)
	}
	if resp.Observer.Lat != 35.6895 || resp.Observer.HeightM != 40 {
		t.Errorf("observer must stay Tokyo, got %+v", resp.Observer)
	}
}

type fixedGeoid struct {
	n   float64
	err error
}

func (g fixedGeoid) Undulation(float64, float64) (float64, error) { return g.n, g.err }

func TestSnapshot_GeoidCorrection(t *testing.T) {
	providers := domain.ProviderChain{ephemeris.SolarSystem{}, catalog.Builtin()}
	newUC := func(g GeoidModel) *SkyChartUseCase {
		return NewSkyChartUseCase(providers, location.Default(), nil, Options{
			Geoid: g,
			Now:   func() time.Time { return fixedInstant },
		})
	}
	req := ChartRequest{Lat: ptr(47.4979), Lon: ptr(19.0402), HeightM: 100, Bodies: []string{"sun"}}

	resp, err := newUC(fixedGeoid{n: 43.5}).Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.Observer.HeightM != 143.5 {
		t.Errorf("expected ellipsoidal height 143.5, got %v", resp.Observer.HeightM)
	}
	if resp.Observer.GeoidHeightM == nil || *resp.Observer.GeoidHeightM != 43.5 {
		t.Errorf("expected geoid height 43.5, got %v", resp.Observer.GeoidHeightM)
	}

	// A site outside the model keeps its height.
	resp, err = newUC(fixedGeoid{err: errors.New("outside grid")}).Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.Observer.HeightM != 100 || resp.Observer.GeoidHeightM != nil {
		t.Errorf("expected uncorrected height, got %+v", resp.Observer)
	}
}

type fixedTerrain struct {
	h   float64
	err error
}

func (g fixedTerrain) GroundHeight(float64, float64) (float64, error) { return g.h, g.err }

func TestSnapshot_TerrainHeight(t *testing.T) {
	providers := domain.ProviderChain{ephemeris.SolarSystem{}, catalog.Builtin()}
	newUC := func(tm TerrainModel, g GeoidModel) *SkyChartUseCase {
		return NewSkyChartUseCase(providers, location.Default(), nil, Options{
			Terrain: tm,
			Geoid:   g,
			Now:     func() time.Time { return fixedInstant },
		})
	}
	req := ChartRequest{City: "budapest", TerrainHeight: true, Bodies: []string{"sun"}}

	resp, err := newUC(fixedTerrain{h: 105}, fixedGeoid{n: 44}).Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if resp.Observer.HeightM != 149 {
		t.Errorf("expected terrain plus geoid height 149, got %v", resp.Observer.HeightM)
	}

	_, err = newUC(fixedTerrain{err: terrain.ErrNoData}, nil).Snapshot(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument outside the terrain grid, got %v", err)
	}

	_, err = newUC(nil, nil).Snapshot(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument without a terrain model, got %v", err)
	}

	_, err = newUC(fixedTerrain{err: errors.New("disk error")}, nil).Snapshot(context.Background(), req)
	if err == nil || errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected an internal error, got %v", err)
	}
}

func TestSnapshot_UnknownBody(t *testing.T) {
	metrics := &recordingMetrics{}
	uc := newTestUseCase(t, nil, metrics)
	bodies := []string{"sun", "pluto", "vega"}

	_, err := uc.Snapshot(context.Background(), ChartRequest{City: "london", Bodies: bodies})
	var ube *domain.UnknownBodyError
	if !errors.As(err, &ube) || ube.Name != "pluto" {
		t.Fatalf("expected UnknownBodyError for pluto, got %v", err)
	}

	resp, err := uc.Snapshot(context.Background(), ChartRequest{City: "london", Bodies: bodies, OnUnknown: "omit"})
	if err != nil {
		t.Fatalf("omit policy: %v", err)
	}
	if len(resp.Bodies) != 2 || len(resp.Omitted) != 1 || resp.Omitted[0] != "pluto" {
		t.Errorf("unexpected omit result: %+v %v", resp.Bodies, resp.Omitted)
	}

	want := []string{observability.OutcomeUnknownBody, observability.OutcomeOK}
	if strings.Join(metrics.outcomes, ",") != strings.Join(want, ",") {
		t.Errorf("outcomes: expected %v, got %v", want, metrics.outcomes)
	}
	if metrics.unknown != 2 {
		t.Errorf("unknown bodies: expected 2, got %d", metrics.unknown)
	}
}

func TestChartRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  ChartRequest
	}{
		{"no observer", ChartRequest{}},
		{"city and coordinates", ChartRequest{City: "london", Lat: ptr(1), Lon: ptr(2)}},
		{"lat only", ChartRequest{Lat: ptr(1)}},
		{"lat out of range", ChartRequest{Lat: ptr(91), Lon: ptr(0)}},
		{"lon below range", ChartRequest{Lat: ptr(0), Lon: ptr(-180.5)}},
		{"lon full turn", ChartRequest{Lat: ptr(0), Lon: ptr(360)}},
		{"nan lat", ChartRequest{Lat: ptr(math.NaN()), Lon: ptr(0)}},
		{"infinite height", ChartRequest{City: "london", HeightM: math.Inf(1)}},
		{"height and terrain", ChartRequest{City: "london", HeightM: 10, TerrainHeight: true}},
		{"empty body", ChartRequest{City: "london", Bodies: []string{"sun", " "}}},
		{"bad policy", ChartRequest{City: "london", OnUnknown: "ignore"}},
		{"bad zone", ChartRequest{City: "london", TimeZone: "Mars/Olympus"}},
		{"too many bodies", ChartRequest{City: "london", Bodies: make([]string, maxBodies+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	for _, ok := range []ChartRequest{
		{Lat: ptr(-33.9), Lon: ptr(18.4), OnUnknown: "omit", TimeZone: "Africa/Johannesburg"},
		{Lat: ptr(0), Lon: ptr(-180)},
		{Lat: ptr(0), Lon: ptr(200)},
		{Lat: ptr(0), Lon: ptr(359.9)},
	} {
		if err := ok.Validate(); err != nil {
			t.Errorf("valid request rejected: %v", err)
		}
	}
}

func TestSnapshot_EastLongitudes(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	west, err := uc.Snapshot(context.Background(), ChartRequest{Lat: ptr(43.6532), Lon: ptr(-79.3832), Bodies: []string{"vega"}})
	if err != nil {
		t.Fatalf("Snapshot west: %v", err)
	}
	east, err := uc.Snapshot(context.Background(), ChartRequest{Lat: ptr(43.6532), Lon: ptr(280.6168), Bodies: []string{"vega"}})
	if err != nil {
		t.Fatalf("Snapshot east: %v", err)
	}
	if east.Observer.Lon != 280.6168 {
		t.Errorf("expected longitude echoed as given, got %v", east.Observer.Lon)
	}
	if math.Abs(west.LocalSiderealTimeHours-east.LocalSiderealTimeHours) > 1e-5 {
		t.Errorf("LST differs: %v vs %v", west.LocalSiderealTimeHours, east.LocalSiderealTimeHours)
	}
	w, e := west.Bodies[0], east.Bodies[0]
	if math.Abs(w.AltitudeDeg-e.AltitudeDeg) > 1e-3 || math.Abs(w.AzimuthDeg-e.AzimuthDeg) > 1e-3 {
		t.Errorf("vega differs: %+v vs %+v", w, e)
	}
}

func TestSnapshot_UnknownCity(t *testing.T) {
	metrics := &recordingMetrics{}
	uc := newTestUseCase(t, nil, metrics)
	_, err := uc.Snapshot(context.Background(), ChartRequest{City: "atlantis"})
	if !errors.Is(err, location.ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != observability.OutcomeInvalid {
		t.Errorf("outcomes: got %v", metrics.outcomes)
	}
}

func TestSunEvents(t *testing.T) {
	budapest := domain.Observer{Name: "Budapest", LatitudeDeg: 47.4979, LongitudeDeg: 19.0402}
	zone, err := time.LoadLocation("Europe/Budapest")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	ev := sunEvents(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC), budapest, zone)
	rise, err := time.Parse(time.RFC3339, ev.Sunrise)
	if err != nil {
		t.Fatalf("parse sunrise %q: %v", ev.Sunrise, err)
	}
	set, err := time.Parse(time.RFC3339, ev.Sunset)
	if err != nil {
		t.Fatalf("parse sunset %q: %v", ev.Sunset, err)
	}
	if !rise.Before(set) {
		t.Errorf("sunrise %s should precede sunset %s", ev.Sunrise, ev.Sunset)
	}
	// Budapest midsummer day is close to 16 hours.
	if day := set.Sub(rise); day < 15*time.Hour || day > 17*time.Hour {
		t.Errorf("day length: got %s", day)
	}
	if !strings.HasSuffix(ev.Sunrise, "+02:00") {
		t.Errorf("sunrise should be in local time, got %s", ev.Sunrise)
	}

	svalbard := domain.Observer{Name: "Longyearbyen", LatitudeDeg: 78.22, LongitudeDeg: 15.65}
	ev = sunEvents(time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC), svalbard, time.UTC)
	if ev.Sunrise != "" || ev.Sunset != "" {
		t.Errorf("polar night should have no sunrise or sunset, got %+v", ev)
	}
}

func TestMoonPhaseInfo(t *testing.T) {
	p := moonPhase(time.Date(2024, 1, 25, 17, 54, 0, 0, time.UTC))
	if p.Name != "full moon" || p.Illumination < 0.97 {
		t.Errorf("expected full moon, got %+v", p)
	}
}

func TestExecute_History(t *testing.T) {
	store := history.NewMemoryStore(10)
	uc := newTestUseCase(t, store, nil)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, ChartRequest{City: "toronto", Bodies: []string{"vega", "moon"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("expected a chart ID")
	}

	got, err := uc.GetChart(ctx, resp.ID)
	if err != nil {
		t.Fatalf("GetChart: %v", err)
	}
	if got.ID != resp.ID || len(got.Bodies) != 2 || got.Bodies[0] != resp.Bodies[0] {
		t.Errorf("stored chart differs: %+v vs %+v", got, resp)
	}

	recent, err := uc.RecentCharts(ctx, 5)
	if err != nil {
		t.Fatalf("RecentCharts: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != resp.ID || recent[0].Observer != "Toronto" {
		t.Errorf("unexpected recent charts: %+v", recent)
	}
	if recent[0].Time != resp.Time {
		t.Errorf("recent time: expected %s, got %s", resp.Time, recent[0].Time)
	}

	if _, err := uc.GetChart(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := uc.RecentCharts(ctx, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for limit 0, got %v", err)
	}
}

func TestExecute_WithoutHistory(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	resp, err := uc.Execute(context.Background(), ChartRequest{City: "tokyo"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.ID != "" {
		t.Errorf("expected no ID without history, got %s", resp.ID)
	}
	if _, err := uc.GetChart(context.Background(), "x"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBodiesAndLocations(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	bodies := uc.Bodies()
	if len(bodies) < 10 || bodies[0] != ephemeris.Sun {
		t.Errorf("unexpected bodies: %v", bodies)
	}
	if len(uc.Locations()) != 5 {
		t.Errorf("expected 5 locations, got %d", len(uc.Locations()))
	}
}

func TestRoundToDecimal(t *testing.T) {
	tests := []struct {
		val       float64
		precision int
		want      float64
	}{
		{1.23456, 2, 1.23},
		{1.2351, 2, 1.24},
		{-1.23456, 3, -1.235},
		{-0.00004, 4, 0},
	}
	for _, tt := range tests {
		if got := roundToDecimal(tt.val, tt.precision); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("roundToDecimal(%v, %d) = %v, want %v", tt.val, tt.precision, got, tt.want)
		}
	}
}

func TestRoundWrapped(t *testing.T) {
	tests := []struct {
		val       float64
		period    float64
		precision int
		want      float64
	}{
		{359.99999, 360, 4, 0},
		{359.99994, 360, 4, 359.9999},
		{23.9999999, 24, 6, 0},
		{12.3456789, 24, 6, 12.345679},
		{0, 360, 4, 0},
	}
	for _, tt := range tests {
		if got := roundWrapped(tt.val, tt.period, tt.precision); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("roundWrapped(%v, %v, %d) = %v, want %v", tt.val, tt.period, tt.precision, got, tt.want)
		}
	}
}

// nearMeridian places "meridian" a hair west of the meridian and "ra-wrap"
// just below 24h of right ascension.
type nearMeridian struct{}

func (nearMeridian) Equatorial(name string, at time.Time, obs domain.Observer) (domain.EquatorialCoordinate, error) {
	switch name {
	case "meridian":
		lst := domain.LocalSiderealTime(at, obs.LongitudeDeg)
		return domain.EquatorialCoordinate{RAHours: domain.Normalize360(lst-0.0001) / 15, DecDeg: 80}, nil
	case "ra-wrap":
		return domain.EquatorialCoordinate{RAHours: 23.9999999, DecDeg: 0}, nil
	}
	return domain.EquatorialCoordinate{}, domain.ErrUnknownBody
}

func TestSnapshot_RoundedAnglesStayInRange(t *testing.T) {
	uc := NewSkyChartUseCase(domain.ProviderChain{nearMeridian{}}, location.Default(), nil, Options{
		Now: func() time.Time { return fixedInstant },
	})
	obs := ChartRequest{Lat: ptr(40), Lon: ptr(0)}

	req := obs
	req.Bodies = []string{"meridian", "ra-wrap"}
	resp, err := uc.Snapshot(context.Background(), req)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, b := range resp.Bodies {
		if b.AzimuthDeg < 0 || b.AzimuthDeg >= 360 {
			t.Errorf("%s: azimuth out of range: %v", b.Name, b.AzimuthDeg)
		}
		if b.RAHours < 0 || b.RAHours >= 24 {
			t.Errorf("%s: right ascension out of range: %v", b.Name, b.RAHours)
		}
	}
	if az := findBody(t, resp, "meridian").AzimuthDeg; az != 0 {
		t.Errorf("meridian: expected azimuth 0, got %v", az)
	}
	if ra := findBody(t, resp, "ra-wrap").RAHours; ra != 0 {
		t.Errorf("ra-wrap: expected right ascension 0, got %v", ra)
	}

	track, err := uc.Track(context.Background(), TrackRequest{
		Observer: obs, Body: "meridian", Start: fixedInstant, End: fixedInstant.Add(time.Minute), Interval: time.Minute,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	for i, p := range track.Points {
		if p.AzimuthDeg < 0 || p.AzimuthDeg >= 360 {
			t.Errorf("point %d: azimuth out of range: %v", i, p.AzimuthDeg)
		}
	}
	if track.Points[0].AzimuthDeg != 0 {
		t.Errorf("expected first track azimuth 0, got %v", track.Points[0].AzimuthDeg)
	}
}
