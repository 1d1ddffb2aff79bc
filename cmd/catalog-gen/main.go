// Package main converts star catalogs between the CSV and NetCDF formats
// read by the sky chart server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.ngs.io/skychart-api/internal/adapter/catalog"
	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/adapter/store/csv"
	"go.ngs.io/skychart-api/internal/adapter/store/nc"
	"go.ngs.io/skychart-api/internal/domain"
)

func main() {
	// Command line flags
	in := flag.String("in", "", "Input catalog (.csv or .nc); empty uses only the builtin stars")
	out := flag.String("out", "./data/catalog.nc", "Output catalog (.nc or .csv; - writes CSV to stdout)")
	withBuiltin := flag.Bool("with-builtin", false, "Merge the builtin bright stars underneath the input")

	flag.Parse()

	if *in == "" && !*withBuiltin {
		log.Fatalf("Nothing to convert: set -in or -with-builtin")
	}

	var stars []store.Star
	if *withBuiltin {
		stars = append(stars, catalog.BuiltinStars()...)
	}
	if *in != "" {
		loaded, err := loaderFor(*in).LoadStars()
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *in, err)
		}
		log.Printf("Loaded %d stars from %s", len(loaded), *in)
		stars = append(stars, loaded...)
	}

	// Validate the merged set the same way the server will.
	merged, err := catalog.New(stars)
	if err != nil {
		log.Fatalf("Invalid catalog: %v", err)
	}
	stars = dedupe(stars)

	if err := write(*out, stars); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	if *out != "-" {
		log.Printf("Wrote %d stars to %s", merged.Len(), *out)
	}
}

func loaderFor(path string) store.CatalogLoader {
	if isNetCDF(path) {
		return nc.NewStore(path)
	}
	return csv.NewCatalogStore(path)
}

func isNetCDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".nc")
}

// dedupe keeps the last position for each name at its first slot.
func dedupe(stars []store.Star) []store.Star {
	index := make(map[string]int, len(stars))
	var out []store.Star
	for _, s := range stars {
		key := domain.NormalizeName(s.Name)
		if i, ok := index[key]; ok {
			out[i].Position = s.Position
			continue
		}
		index[key] = len(out)
		out = append(out, s)
	}
	return out
}

func write(path string, stars []store.Star) error {
	if path == "-" {
		return csv.WriteStars(os.Stdout, stars)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if isNetCDF(path) {
		return nc.WriteCatalog(path, stars)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csv.WriteStars(f, stars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
