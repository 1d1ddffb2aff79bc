package usecase

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image/png"
	"io"
	"testing"
	"time"

	"go.ngs.io/skychart-api/internal/domain"
)

func TestTrack_SunOverOneDay(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	start := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	resp, err := uc.Track(context.Background(), TrackRequest{
		Observer: ChartRequest{City: "london"},
		Body:     "sun",
		Start:    start,
		End:      start.Add(24 * time.Hour),
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(resp.Points) != 25 {
		t.Fatalf("expected 25 points, got %d", len(resp.Points))
	}

	var prev time.Time
	visible := 0
	for i, p := range resp.Points {
		at, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			t.Fatalf("point %d: parse %q: %v", i, p.Time, err)
		}
		if i > 0 && !at.After(prev) {
			t.Errorf("point %d out of order: %s after %s", i, p.Time, prev)
		}
		prev = at
		if p.Visible {
			visible++
		}
	}
	// London midsummer has roughly 16.5 hours of daylight.
	if visible < 15 || visible > 18 {
		t.Errorf("expected about 16 daylight samples, got %d", visible)
	}

	// Summer solstice noon altitude at London is 90 - 51.5 + 23.4.
	if resp.Culmination == nil {
		t.Fatal("expected a culmination")
	}
	if resp.Culmination.AltitudeDeg < 60 || resp.Culmination.AltitudeDeg > 62.5 {
		t.Errorf("culmination altitude: got %.3f", resp.Culmination.AltitudeDeg)
	}
	if resp.Label != "Sun" || resp.TimeZone != "Europe/London" {
		t.Errorf("unexpected label or zone: %s %s", resp.Label, resp.TimeZone)
	}
}

func TestTrack_MatchesSnapshot(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	obs := ChartRequest{Lat: ptr(43.6532), Lon: ptr(-79.3832)}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	track, err := uc.Track(context.Background(), TrackRequest{
		Observer: obs, Body: "vega", Start: start, End: start.Add(3 * time.Hour), Interval: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	for i, p := range track.Points {
		req := obs
		req.Bodies = []string{"vega"}
		req.Time = start.Add(time.Duration(i) * 30 * time.Minute)
		snap, err := uc.Snapshot(context.Background(), req)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if p.AltitudeDeg != snap.Bodies[0].AltitudeDeg || p.AzimuthDeg != snap.Bodies[0].AzimuthDeg {
			t.Errorf("point %d: track %+v, snapshot %+v", i, p, snap.Bodies[0])
		}
	}
}

func TestTrack_Errors(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	london := ChartRequest{City: "london"}

	tests := []struct {
		name string
		req  TrackRequest
		want error
	}{
		{"no body", TrackRequest{Observer: london, Start: start, End: start.Add(time.Hour), Interval: time.Minute}, domain.ErrInvalidArgument},
		{"reversed", TrackRequest{Observer: london, Body: "sun", Start: start, End: start, Interval: time.Minute}, domain.ErrInvalidArgument},
		{"short interval", TrackRequest{Observer: london, Body: "sun", Start: start, End: start.Add(time.Hour), Interval: time.Second}, domain.ErrInvalidArgument},
		{"too many points", TrackRequest{Observer: london, Body: "sun", Start: start, End: start.Add(30 * 24 * time.Hour), Interval: time.Minute}, domain.ErrInvalidArgument},
		{"no observer", TrackRequest{Body: "sun", Start: start, End: start.Add(time.Hour), Interval: time.Minute}, domain.ErrInvalidArgument},
		{"unknown body", TrackRequest{Observer: london, Body: "pluto", Start: start, End: start.Add(time.Hour), Interval: time.Minute}, domain.ErrUnknownBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Track(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	req := ChartRequest{City: "budapest"}

	img, err := uc.Render(context.Background(), req, "png", 400)
	if err != nil {
		t.Fatalf("Render png: %v", err)
	}
	if img.ContentType != "image/png" || img.Extension != ".png" {
		t.Errorf("unexpected png metadata: %s %s", img.ContentType, img.Extension)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 520 || cfg.Height != 400 {
		t.Errorf("png size: got %dx%d", cfg.Width, cfg.Height)
	}

	img, err = uc.Render(context.Background(), req, "svg", 0)
	if err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	if img.ContentType != "image/svg+xml" {
		t.Errorf("svg content type: got %s", img.ContentType)
	}
	dec := xml.NewDecoder(bytes.NewReader(img.Data))
	for {
		if _, err := dec.Token(); err != nil {
			if err != io.EOF {
				t.Fatalf("svg is not well-formed: %v", err)
			}
			break
		}
	}
	if !bytes.Contains(img.Data, []byte("Sky above Budapest")) {
		t.Error("svg should carry the title")
	}
}

func TestRender_Errors(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	req := ChartRequest{City: "budapest"}

	if _, err := uc.Render(context.Background(), req, "gif", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("format: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := uc.Render(context.Background(), req, "svg", 50); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("size: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := uc.Render(context.Background(), ChartRequest{}, "svg", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("request: expected ErrInvalidArgument, got %v", err)
	}
}
