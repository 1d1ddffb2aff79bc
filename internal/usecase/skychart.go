// Package usecase orchestrates sky chart requests: observer resolution,
// chart assembly, almanac data, rendering, tracks and chart history.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"go.ngs.io/skychart-api/internal/adapter/history"
	"go.ngs.io/skychart-api/internal/adapter/location"
	"go.ngs.io/skychart-api/internal/adapter/terrain"
	"go.ngs.io/skychart-api/internal/domain"
	"go.ngs.io/skychart-api/internal/logging"
	"go.ngs.io/skychart-api/internal/observability"
	"go.ngs.io/skychart-api/internal/render"
)

// DefaultBodies are charted when a request names none.
var DefaultBodies = []string{
	"sun", "moon", "mercury", "venus", "mars", "jupiter", "saturn",
	"vega", "sirius", "polaris",
}

const maxBodies = 100

// ChartRequest describes one sky chart. Either City or both Lat and Lon
// identify the observer.
type ChartRequest struct {
	City string

	Lat     *float64
	Lon     *float64
	HeightM float64
	Name    string
	// TerrainHeight takes the height from the terrain model instead of HeightM.
	TerrainHeight bool

	// Time is the chart instant. Zero means now.
	Time time.Time
	// TimeZone is the IANA zone used for display only. Empty means the
	// city's zone, else UTC.
	TimeZone string

	Bodies    []string
	OnUnknown string // "fail" or "omit"

	Lang           string
	AcceptLanguage string
}

// ChartResponse is the JSON form of a sky chart.
type ChartResponse struct {
	ID                     string            `json:"id,omitempty"`
	Observer               ObserverInfo      `json:"observer"`
	Time                   string            `json:"time"`
	LocalTime              string            `json:"local_time"`
	TimeZone               string            `json:"time_zone"`
	LocalSiderealTimeHours float64           `json:"local_sidereal_time_hours"`
	Bodies                 []BodyPosition    `json:"bodies"`
	Omitted                []string          `json:"omitted,omitempty"`
	SunEvents              *SunEvents        `json:"sun_events,omitempty"`
	MoonPhase              *MoonPhaseInfo    `json:"moon_phase,omitempty"`
	Meta                   map[string]string `json:"meta"`
}

// ObserverInfo identifies the observing site. HeightM is above the WGS84
// ellipsoid once a geoid model is configured, and GeoidHeightM is then the
// undulation that was added.
type ObserverInfo struct {
	Name         string   `json:"name"`
	City         string   `json:"city,omitempty"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	HeightM      float64  `json:"height_m"`
	GeoidHeightM *float64 `json:"geoid_height_m,omitempty"`
}

// BodyPosition is one body placed on the chart.
type BodyPosition struct {
	Label                string  `json:"label"`
	Name                 string  `json:"name"`
	RAHours              float64 `json:"ra_hours"`
	DecDeg               float64 `json:"dec_deg"`
	AltitudeDeg          float64 `json:"altitude_deg"`
	AzimuthDeg           float64 `json:"azimuth_deg"`
	Visible              bool    `json:"visible"`
	AzimuthIndeterminate bool    `json:"azimuth_indeterminate,omitempty"`
}

// Metrics receives chart outcomes. *observability.Collector implements it.
type Metrics interface {
	ObserveChart(outcome string, bodies int, d time.Duration)
	AddUnknownBodies(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveChart(string, int, time.Duration) {}
func (noopMetrics) AddUnknownBodies(int)                    {}

// GeoidModel converts heights above mean sea level to ellipsoidal ones.
// *geoid.Store implements it.
type GeoidModel interface {
	Undulation(lat, lon float64) (float64, error)
}

// TerrainModel gives the ground height above mean sea level.
// *terrain.Store implements it.
type TerrainModel interface {
	GroundHeight(lat, lon float64) (float64, error)
}

// Options carries the optional collaborators of SkyChartUseCase.
type Options struct {
	Metrics     Metrics
	Geoid       GeoidModel
	Terrain     TerrainModel
	Logger      logging.Logger
	FontPath    string
	DefaultLang string
	Now         func() time.Time
}

// SkyChartUseCase orchestrates sky chart requests.
type SkyChartUseCase struct {
	providers domain.ProviderChain
	locations *location.Directory
	history   history.Store

	// displayNames maps normalized body names to the providers' spelling.
	displayNames map[string]string

	metrics     Metrics
	geoid       GeoidModel
	terrain     TerrainModel
	log         logging.Logger
	fontPath    string
	defaultLang string
	now         func() time.Time
}

// NewSkyChartUseCase creates a new sky chart use case. hist may be nil, in
// which case charts are not stored.
func NewSkyChartUseCase(providers domain.ProviderChain, locations *location.Directory, hist history.Store, opts Options) *SkyChartUseCase {
	uc := &SkyChartUseCase{
		providers:    providers,
		locations:    locations,
		history:      hist,
		displayNames: make(map[string]string),
		metrics:      opts.Metrics,
		geoid:        opts.Geoid,
		terrain:      opts.Terrain,
		log:          opts.Logger,
		fontPath:     opts.FontPath,
		defaultLang:  opts.DefaultLang,
		now:          opts.Now,
	}
	if uc.locations == nil {
		uc.locations = location.Default()
	}
	if uc.metrics == nil {
		uc.metrics = noopMetrics{}
	}
	if uc.log == nil {
		uc.log = logging.Noop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	for _, name := range providers.Bodies() {
		uc.displayNames[domain.NormalizeName(name)] = name
	}
	return uc
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Validate checks if the request is valid.
func (r *ChartRequest) Validate() error {
	hasCity := strings.TrimSpace(r.City) != ""
	if (r.Lat == nil) != (r.Lon == nil) {
		return invalidf("lat and lon must be provided together")
	}
	hasLatLon := r.Lat != nil && r.Lon != nil

	if !hasCity && !hasLatLon {
		return invalidf("either city or lat/lon must be provided")
	}
	if hasCity && hasLatLon {
		return invalidf("city and lat/lon are mutually exclusive")
	}

	if hasLatLon {
		if math.IsNaN(*r.Lat) || *r.Lat < -90 || *r.Lat > 90 {
			return invalidf("latitude must be between -90 and 90")
		}
		if math.IsNaN(*r.Lon) || *r.Lon < -180 || *r.Lon >= 360 {
			return invalidf("longitude must be in [-180, 360)")
		}
	}
	if math.IsNaN(r.HeightM) || math.IsInf(r.HeightM, 0) {
		return invalidf("height must be finite")
	}
	if r.TerrainHeight && r.HeightM != 0 {
		return invalidf("height and terrain height are mutually exclusive")
	}

	if len(r.Bodies) > maxBodies {
		return invalidf("too many bodies (%d) - at most %d per chart", len(r.Bodies), maxBodies)
	}
	for _, b := range r.Bodies {
		if strings.TrimSpace(b) == "" {
			return invalidf("body names must not be empty")
		}
	}

	if _, err := domain.ParseUnknownBodyPolicy(r.OnUnknown); err != nil {
		return err
	}
	if r.TimeZone != "" {
		if _, err := time.LoadLocation(r.TimeZone); err != nil {
			return invalidf("unknown time zone %q", r.TimeZone)
		}
	}
	return nil
}

// resolved is a validated request with every default applied.
type resolved struct {
	observer domain.Observer
	city     string
	zone     *time.Location
	at       time.Time
	bodies   []domain.Body
	policy   domain.UnknownBodyPolicy
	labels   render.Labels

	// geoidHeight is the undulation added to the observer height, if any.
	geoidHeight *float64
}

func (uc *SkyChartUseCase) resolve(ctx context.Context, req ChartRequest) (resolved, error) {
	if err := req.Validate(); err != nil {
		return resolved{}, err
	}

	var res resolved
	res.zone = time.UTC

	if req.City != "" {
		loc, err := uc.locations.Lookup(req.City)
		if err != nil {
			return resolved{}, err
		}
		obs, err := loc.Observer()
		if err != nil {
			return resolved{}, err
		}
		res.observer = obs
		res.city = loc.ID
		res.zone = loc.Zone()
	} else {
		obs, err := domain.NewObserver(req.Name, *req.Lat, *req.Lon, req.HeightM)
		if err != nil {
			return resolved{}, err
		}
		res.observer = obs
	}
	if req.TerrainHeight {
		if err := uc.applyTerrain(&res); err != nil {
			return resolved{}, err
		}
	}
	uc.applyGeoid(ctx, &res)

	if req.TimeZone != "" {
		zone, err := time.LoadLocation(req.TimeZone)
		if err != nil {
			return resolved{}, invalidf("unknown time zone %q", req.TimeZone)
		}
		res.zone = zone
	}

	res.at = req.Time
	if res.at.IsZero() {
		res.at = uc.now()
	}
	res.at = res.at.UTC()

	res.policy, _ = domain.ParseUnknownBodyPolicy(req.OnUnknown)
	res.labels = render.LabelsFor(req.Lang, req.AcceptLanguage, uc.defaultLang)

	names := req.Bodies
	if len(names) == 0 {
		names = DefaultBodies
	}
	title := cases.Title(res.labels.Tag)
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := domain.NormalizeName(name)
		display, ok := uc.displayNames[key]
		if !ok {
			display = title.String(name)
		}
		res.bodies = append(res.bodies, domain.Body{
			Label:    res.labels.BodyLabel(key, display),
			Name:     name,
			Provider: uc.providers,
		})
	}
	return res, nil
}

func (uc *SkyChartUseCase) applyTerrain(res *resolved) error {
	if uc.terrain == nil {
		return invalidf("terrain heights are not available")
	}
	h, err := uc.terrain.GroundHeight(res.observer.LatitudeDeg, domain.Normalize180(res.observer.LongitudeDeg))
	if errors.Is(err, terrain.ErrNoData) {
		return invalidf("no terrain height at %.4f, %.4f", res.observer.LatitudeDeg, res.observer.LongitudeDeg)
	}
	if err != nil {
		return fmt.Errorf("terrain height: %w", err)
	}
	res.observer.HeightM = h
	return nil
}

// applyGeoid turns the observer height above mean sea level into a height
// above the ellipsoid. Sites outside the model grid keep their height.
func (uc *SkyChartUseCase) applyGeoid(ctx context.Context, res *resolved) {
	if uc.geoid == nil {
		return
	}
	n, err := uc.geoid.Undulation(res.observer.LatitudeDeg, domain.Normalize180(res.observer.LongitudeDeg))
	if err != nil {
		uc.log.Warn(ctx, "geoid correction skipped",
			logging.Float("lat", res.observer.LatitudeDeg),
			logging.Float("lon", res.observer.LongitudeDeg),
			logging.Err(err),
		)
		return
	}
	res.observer.HeightM += n
	res.geoidHeight = &n
}

// build resolves the request and assembles the chart, recording metrics.
func (uc *SkyChartUseCase) build(ctx context.Context, req ChartRequest) (resolved, domain.SkyChart, error) {
	start := time.Now()
	bodies := len(req.Bodies)
	if bodies == 0 {
		bodies = len(DefaultBodies)
	}

	res, err := uc.resolve(ctx, req)
	if err != nil {
		uc.metrics.ObserveChart(outcomeOf(err), bodies, time.Since(start))
		return resolved{}, domain.SkyChart{}, err
	}

	chart, err := domain.BuildSkyChart(res.observer, res.at, res.bodies, res.policy)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownBody) {
			uc.metrics.AddUnknownBodies(1)
		}
		uc.metrics.ObserveChart(outcomeOf(err), bodies, time.Since(start))
		return resolved{}, domain.SkyChart{}, err
	}

	uc.metrics.AddUnknownBodies(len(chart.Omitted))
	uc.metrics.ObserveChart(observability.OutcomeOK, bodies, time.Since(start))

	logging.FromContext(ctx, uc.log).Debug(ctx, "sky chart built",
		logging.String("observer", res.observer.Name),
		logging.String("instant", res.at.Format(time.RFC3339)),
		logging.Int("entries", len(chart.Entries)),
		logging.Int("omitted", len(chart.Omitted)),
	)
	return res, chart, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownBody):
		return observability.OutcomeUnknownBody
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, location.ErrUnknownLocation):
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}

// Snapshot computes a chart without storing it.
func (uc *SkyChartUseCase) Snapshot(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	res, chart, err := uc.build(ctx, req)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(res, chart), nil
}

// Execute computes a chart and stores it in the history when one is
// configured. The stored chart's ID is set on the response.
func (uc *SkyChartUseCase) Execute(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "skychart.Execute")
	defer span.End()

	resp, err := uc.Snapshot(ctx, req)
	if err != nil {
		endWithError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("skychart.bodies", len(resp.Bodies)),
		attribute.Int("skychart.omitted", len(resp.Omitted)),
	)

	if uc.history == nil {
		return resp, nil
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	rec, err := uc.history.Save(ctx, history.Record{
		ObserverName: resp.Observer.Name,
		Lat:          resp.Observer.Lat,
		Lon:          resp.Observer.Lon,
		Instant:      chartInstant(resp),
		Payload:      payload,
	})
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("save chart: %w", err)
	}
	resp.ID = rec.ID
	span.SetAttributes(attribute.String("skychart.id", rec.ID))
	return resp, nil
}

func chartInstant(resp *ChartResponse) time.Time {
	t, err := time.Parse(time.RFC3339, resp.Time)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetChart returns a stored chart by ID.
func (uc *SkyChartUseCase) GetChart(ctx context.Context, id string) (*ChartResponse, error) {
	if uc.history == nil {
		return nil, history.ErrNotFound
	}
	rec, err := uc.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var resp ChartResponse
	if err := json.Unmarshal(rec.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decode chart %s: %w", id, err)
	}
	resp.ID = rec.ID
	return &resp, nil
}

// ChartSummary is a history listing entry.
type ChartSummary struct {
	ID        string  `json:"id"`
	CreatedAt string  `json:"created_at"`
	Observer  string  `json:"observer"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Time      string  `json:"time"`
}

// RecentCharts lists up to limit stored charts, newest first.
func (uc *SkyChartUseCase) RecentCharts(ctx context.Context, limit int) ([]ChartSummary, error) {
	if limit < 1 || limit > 100 {
		return nil, invalidf("limit must be between 1 and 100")
	}
	if uc.history == nil {
		return []ChartSummary{}, nil
	}
	recs, err := uc.history.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ChartSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, ChartSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
			Observer:  r.ObserverName,
			Lat:       r.Lat,
			Lon:       r.Lon,
			Time:      r.Instant.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// Bodies returns every resolvable body name.
func (uc *SkyChartUseCase) Bodies() []string {
	return uc.providers.Bodies()
}

// Locations returns the named observing sites.
func (uc *SkyChartUseCase) Locations() []location.Location {
	return uc.locations.List()
}

func (uc *SkyChartUseCase) toResponse(res resolved, chart domain.SkyChart) *ChartResponse {
	resp := &ChartResponse{
		Observer: ObserverInfo{
			Name:         chart.Observer.Name,
			City:         res.city,
			Lat:          chart.Observer.LatitudeDeg,
			Lon:          chart.Observer.LongitudeDeg,
			HeightM:      roundToDecimal(chart.Observer.HeightM, 3),
			GeoidHeightM: res.geoidHeight,
		},
		Time:                   chart.Instant.Format(time.RFC3339),
		LocalTime:              chart.Instant.In(res.zone).Format(time.RFC3339),
		TimeZone:               res.zone.String(),
		LocalSiderealTimeHours: roundWrapped(chart.LocalSiderealTimeDeg/15, 24, 6),
		Bodies:                 make([]BodyPosition, 0, len(chart.Entries)),
		Omitted:                chart.Omitted,
		Meta: map[string]string{
			"on_unknown": res.policy.String(),
			"lang":       res.labels.Tag.String(),
		},
	}
	for _, e := range chart.Entries {
		resp.Bodies = append(resp.Bodies, BodyPosition{
			Label:                e.Label,
			Name:                 e.Name,
			RAHours:              roundWrapped(e.Equatorial.RAHours, 24, 6),
			DecDeg:               roundToDecimal(e.Equatorial.DecDeg, 5),
			AltitudeDeg:          roundToDecimal(e.Horizontal.AltitudeDeg, 4),
			AzimuthDeg:           roundWrapped(e.Horizontal.AzimuthDeg, 360, 4),
			Visible:              e.Horizontal.AboveHorizon(),
			AzimuthIndeterminate: e.Horizontal.AzimuthIndeterminate,
		})
	}

	if ev := sunEvents(chart.Instant, chart.Observer, res.zone); !ev.empty() {
		resp.SunEvents = &ev
	}
	phase := moonPhase(chart.Instant)
	resp.MoonPhase = &phase
	return resp
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// roundToDecimal rounds val half away from zero to precision decimal places.
func roundToDecimal(val float64, precision int) float64 {
	multiplier := math.Pow(10, float64(precision))
	return math.Round(val*multiplier) / multiplier
}

// roundWrapped rounds a value in [0, period) and keeps it in that range, so
// 359.99999 becomes 0 rather than 360.
func roundWrapped(val, period float64, precision int) float64 {
	v := roundToDecimal(val, precision)
	if v >= period {
		v -= period
	}
	return v
}
