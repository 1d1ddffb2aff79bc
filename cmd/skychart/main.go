// Package main is a command line client that computes a sky chart locally
// and prints it or saves the rendered image.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.ngs.io/skychart-api/internal/adapter/catalog"
	"go.ngs.io/skychart-api/internal/adapter/ephemeris"
	"go.ngs.io/skychart-api/internal/adapter/geoid"
	"go.ngs.io/skychart-api/internal/adapter/location"
	"go.ngs.io/skychart-api/internal/adapter/terrain"
	"go.ngs.io/skychart-api/internal/domain"
	"go.ngs.io/skychart-api/internal/usecase"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "skychart: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	req       usecase.ChartRequest
	out       string
	size      int
	asJSON    bool
	catalog   string
	tle       string
	font      string
	geoid     string
	terrain   string
	lat, lon  float64
	hasLatLon map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("skychart", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{hasLatLon: map[string]bool{}}
	var timeStr, bodies string
	fs.StringVar(&o.req.City, "city", "", "Named city (toronto, new-york, london, budapest, tokyo)")
	fs.Float64Var(&o.lat, "lat", 0, "Observer latitude in degrees")
	fs.Float64Var(&o.lon, "lon", 0, "Observer longitude in degrees, east positive")
	fs.Float64Var(&o.req.HeightM, "height", 0, "Observer height in meters")
	fs.StringVar(&o.req.Name, "name", "", "Observer name for the chart title")
	fs.StringVar(&timeStr, "time", "", "Chart instant, RFC3339 (default: now)")
	fs.StringVar(&o.req.TimeZone, "tz", "", "Display time zone (default: the city's zone, else UTC)")
	fs.StringVar(&bodies, "bodies", "", "Comma-separated bodies (default: Sun, Moon, planets, Vega, Sirius, Polaris)")
	fs.StringVar(&o.req.OnUnknown, "on-unknown", "fail", "What to do with unknown bodies: fail or omit")
	fs.StringVar(&o.req.Lang, "lang", "", "Label language: en or hu")
	fs.StringVar(&o.out, "out", "", "Write the rendered chart to this .png or .svg file")
	fs.IntVar(&o.size, "size", 0, "Chart size in pixels (default: 1000)")
	fs.BoolVar(&o.asJSON, "json", false, "Print the chart as JSON")
	fs.StringVar(&o.catalog, "catalog", "", "Extra star catalog, .csv or .nc")
	fs.StringVar(&o.tle, "tle", "", "Satellite two-line elements file or URL")
	fs.StringVar(&o.font, "font", "", "TrueType font for PNG output")
	fs.StringVar(&o.geoid, "geoid", "", "NetCDF geoid grid; -height is then above sea level")
	fs.StringVar(&o.terrain, "terrain", "", "Elevation grid; the ground height is used unless -height is set")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	hasHeight := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat", "lon":
			o.hasLatLon[f.Name] = true
		case "height":
			hasHeight = true
		}
	})
	o.req.TerrainHeight = o.terrain != "" && !hasHeight
	if o.hasLatLon["lat"] {
		o.req.Lat = &o.lat
	}
	if o.hasLatLon["lon"] {
		o.req.Lon = &o.lon
	}

	if timeStr != "" {
		t, err := time.Parse(time.RFC3339, timeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid -time (expected RFC3339): %w", err)
		}
		o.req.Time = t
	}
	if bodies != "" {
		for _, b := range strings.Split(bodies, ",") {
			o.req.Bodies = append(o.req.Bodies, strings.TrimSpace(b))
		}
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	dir := location.Default()
	if o.req.City == "" && o.req.Lat == nil && o.req.Lon == nil {
		city, err := promptCity(stdin, stdout, dir)
		if err != nil {
			return err
		}
		o.req.City = city
	}

	providers, err := buildProviders(ctx, o)
	if err != nil {
		return err
	}
	opts := usecase.Options{FontPath: o.font}
	if o.geoid != "" {
		store := geoid.NewStore(o.geoid)
		if err := store.Load(); err != nil {
			return err
		}
		opts.Geoid = store
	}
	if o.terrain != "" {
		opts.Terrain = terrain.NewStore(o.terrain, terrain.DefaultMargin)
	}
	uc := usecase.NewSkyChartUseCase(providers, dir, nil, opts)

	if o.out != "" {
		img, err := uc.Render(ctx, o.req, strings.TrimPrefix(filepath.Ext(o.out), "."), o.size)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.out, img.Data, 0644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(stdout, "Chart saved to %s\n", o.out)
		return nil
	}

	chart, err := uc.Snapshot(ctx, o.req)
	if err != nil {
		return err
	}
	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chart)
	}
	return printTable(stdout, chart)
}

func buildProviders(ctx context.Context, o *options) (domain.ProviderChain, error) {
	stars := catalog.Builtin()
	if o.catalog != "" {
		loaded, err := catalog.Load(o.catalog)
		if err != nil {
			return nil, err
		}
		stars = loaded
	}
	providers := domain.ProviderChain{ephemeris.SolarSystem{}, stars}
	if o.tle != "" {
		sats, err := ephemeris.LoadSatellites(ctx, o.tle)
		if err != nil {
			return nil, err
		}
		providers = append(providers, sats)
	}
	return providers, nil
}

// promptCity asks for a city until a known one is entered.
func promptCity(stdin io.Reader, stdout io.Writer, dir *location.Directory) (string, error) {
	var ids []string
	for _, l := range dir.List() {
		ids = append(ids, l.Name)
	}
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprintf(stdout, "Enter a city name (%s): ", strings.Join(ids, ", "))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("no city given")
		}
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if _, err := dir.Lookup(name); err != nil {
			fmt.Fprintf(stdout, "%v\n", err)
			continue
		}
		return name, nil
	}
}

func printTable(w io.Writer, chart *usecase.ChartResponse) error {
	name := chart.Observer.Name
	if name == "" {
		name = fmt.Sprintf("%.4f, %.4f", chart.Observer.Lat, chart.Observer.Lon)
	}
	fmt.Fprintf(w, "Sky above %s at %s (%s)\n", name, chart.LocalTime, chart.TimeZone)
	fmt.Fprintf(w, "Local sidereal time: %.4f h\n\n", chart.LocalSiderealTimeHours)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BODY\tALT\tAZ\tRA (h)\tDEC\tVISIBLE")
	for _, b := range chart.Bodies {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.4f\t%.2f\t%v\n",
			b.Label, b.AltitudeDeg, b.AzimuthDeg, b.RAHours, b.DecDeg, b.Visible)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(chart.Omitted) > 0 {
		fmt.Fprintf(w, "\nOmitted: %s\n", strings.Join(chart.Omitted, ", "))
	}
	if chart.MoonPhase != nil {
		fmt.Fprintf(w, "\nMoon: %s, %.0f%% illuminated\n", chart.MoonPhase.Name, chart.MoonPhase.Illumination*100)
	}
	if ev := chart.SunEvents; ev != nil && ev.Sunrise != "" && ev.Sunset != "" {
		fmt.Fprintf(w, "Sunrise %s, sunset %s\n", ev.Sunrise, ev.Sunset)
	}
	return nil
}
