package usecase

import (
	"context"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/skychart-api/internal/domain"
	"go.ngs.io/skychart-api/internal/logging"
	"go.ngs.io/skychart-api/internal/observability"
)

const maxTrackPoints = 10000

// TrackRequest asks for one body's path across the sky over a time range.
// Observer fields follow ChartRequest.
type TrackRequest struct {
	Observer ChartRequest
	Body     string

	Start    time.Time
	End      time.Time
	Interval time.Duration
}

// TrackResponse is a body's horizontal position series.
type TrackResponse struct {
	Observer    ObserverInfo `json:"observer"`
	Body        string       `json:"body"`
	Label       string       `json:"label"`
	TimeZone    string       `json:"time_zone"`
	Points      []TrackPoint `json:"points"`
	Culmination *TrackPoint  `json:"culmination,omitempty"`
}

// TrackPoint is one sample of a track.
type TrackPoint struct {
	Time        string  `json:"time"`
	AltitudeDeg float64 `json:"altitude_deg"`
	AzimuthDeg  float64 `json:"azimuth_deg"`
	Visible     bool    `json:"visible"`
}

// Validate checks if the request is valid.
func (r *TrackRequest) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return invalidf("body must be provided")
	}
	if !r.Start.Before(r.End) {
		return invalidf("start time must be before end time")
	}
	if r.Interval < time.Minute {
		return invalidf("interval must be at least 1 minute")
	}
	if r.Interval > 6*time.Hour {
		return invalidf("interval must be at most 6 hours")
	}
	if r.End.Sub(r.Start) > 366*24*time.Hour {
		return invalidf("time range must be at most 366 days")
	}
	numPoints := int(r.End.Sub(r.Start)/r.Interval) + 1
	if numPoints > maxTrackPoints {
		return invalidf("too many track points (%d) - reduce time range or increase interval", numPoints)
	}
	return nil
}

// Track computes the body's altitude and azimuth at every interval from
// Start through End. Instants are computed in parallel, bounded by the
// number of CPUs; points keep chronological order.
func (uc *SkyChartUseCase) Track(ctx context.Context, req TrackRequest) (*TrackResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "skychart.Track")
	defer span.End()

	if err := req.Validate(); err != nil {
		endWithError(span, err)
		return nil, err
	}

	chartReq := req.Observer
	chartReq.Bodies = []string{req.Body}
	chartReq.OnUnknown = "fail"
	chartReq.Time = req.Start
	res, err := uc.resolve(ctx, chartReq)
	if err != nil {
		endWithError(span, err)
		return nil, err
	}

	var instants []time.Time
	for t := req.Start.UTC(); !t.After(req.End.UTC()); t = t.Add(req.Interval) {
		instants = append(instants, t)
	}
	span.SetAttributes(
		attribute.String("skychart.body", req.Body),
		attribute.Int("skychart.points", len(instants)),
	)

	points := make([]TrackPoint, len(instants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, at := range instants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chart, err := domain.BuildSkyChart(res.observer, at, res.bodies, domain.FailOnUnknown)
			if err != nil {
				return err
			}
			h := chart.Entries[0].Horizontal
			points[i] = TrackPoint{
				Time:        at.In(res.zone).Format(time.RFC3339),
				AltitudeDeg: roundToDecimal(h.AltitudeDeg, 4),
				AzimuthDeg:  roundWrapped(h.AzimuthDeg, 360, 4),
				Visible:     h.AboveHorizon(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		endWithError(span, err)
		return nil, err
	}

	resp := &TrackResponse{
		Observer: ObserverInfo{
			Name:         res.observer.Name,
			City:         res.city,
			Lat:          res.observer.LatitudeDeg,
			Lon:          res.observer.LongitudeDeg,
			HeightM:      roundToDecimal(res.observer.HeightM, 3),
			GeoidHeightM: res.geoidHeight,
		},
		Body:     req.Body,
		Label:    res.bodies[0].Label,
		TimeZone: res.zone.String(),
		Points:   points,
	}
	for i := range points {
		if resp.Culmination == nil || points[i].AltitudeDeg > resp.Culmination.AltitudeDeg {
			p := points[i]
			resp.Culmination = &p
		}
	}

	logging.FromContext(ctx, uc.log).Debug(ctx, "track computed",
		logging.String("body", req.Body),
		logging.Int("points", len(points)),
	)
	return resp, nil
}
