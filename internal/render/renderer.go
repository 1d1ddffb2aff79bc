package render

import (
	"fmt"
	"io"
	"strings"
)

// Renderer draws a laid out chart to w.
type Renderer interface {
	Render(w io.Writer, chart PolarChart) error
	ContentType() string
	Extension() string
}

// Format names accepted by ForFormat.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// ForFormat returns the renderer for a format name. fontPath is an optional
// TrueType font for the PNG backend.
func ForFormat(format, fontPath string) (Renderer, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")) {
	case "", FormatPNG:
		return &PNG{FontPath: fontPath}, nil
	case FormatSVG:
		return &SVG{}, nil
	}
	return nil, fmt.Errorf("unsupported chart format %q (want png or svg)", format)
}
