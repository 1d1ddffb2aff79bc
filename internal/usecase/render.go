package usecase

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"go.ngs.io/skychart-api/internal/observability"
	"go.ngs.io/skychart-api/internal/render"
)

// RenderedChart is an encoded chart image.
type RenderedChart struct {
	ContentType string
	Extension   string
	Data        []byte
}

// Render computes the chart and draws it in format ("png" or "svg"). size is
// the plot edge in pixels; zero means the default.
func (uc *SkyChartUseCase) Render(ctx context.Context, req ChartRequest, format string, size int) (*RenderedChart, error) {
	ctx, span := observability.Tracer().Start(ctx, "skychart.Render")
	defer span.End()

	renderer, err := render.ForFormat(format, uc.fontPath)
	if err != nil {
		err = invalidf("%v", err)
		endWithError(span, err)
		return nil, err
	}
	if size != 0 && (size < 200 || size > 4000) {
		err := invalidf("size must be between 200 and 4000 pixels")
		endWithError(span, err)
		return nil, err
	}

	res, chart, err := uc.build(ctx, req)
	if err != nil {
		endWithError(span, err)
		return nil, err
	}

	layout := render.Layout(chart, render.Options{
		Size:   size,
		Zone:   res.zone,
		Labels: res.labels,
	})

	var buf bytes.Buffer
	if err := renderer.Render(&buf, layout); err != nil {
		err = fmt.Errorf("render chart: %w", err)
		endWithError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("skychart.format", renderer.Extension()),
		attribute.Int("skychart.bytes", buf.Len()),
	)

	return &RenderedChart{
		ContentType: renderer.ContentType(),
		Extension:   renderer.Extension(),
		Data:        buf.Bytes(),
	}, nil
}
