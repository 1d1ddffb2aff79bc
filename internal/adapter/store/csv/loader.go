// Package csv provides CSV-based star catalog loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/domain"
)

// CatalogStore reads a star catalog from a CSV file with the header
// name,ra_hours,dec_deg.
type CatalogStore struct {
	path string
}

// NewCatalogStore creates a new CSV-based catalog store.
func NewCatalogStore(path string) *CatalogStore {
	return &CatalogStore{
		path: path,
	}
}

var _ store.CatalogLoader = (*CatalogStore)(nil)

// LoadStars loads every star in the file.
func (s *CatalogStore) LoadStars() ([]store.Star, error) {
	//nolint:gosec // G304: File path comes from configuration.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog CSV %s: %w", s.path, err)
	}
	defer func() { _ = file.Close() }()

	return ReadStars(file)
}

// ReadStars parses catalog CSV from r.
func ReadStars(r io.Reader) ([]store.Star, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Validate header.
	expectedHeaders := []string{"name", "ra_hours", "dec_deg"}
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}

	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	// Read data rows.
	stars := make([]store.Star, 0)
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("invalid CSV record: expected 3 columns, got %d", len(record))
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("invalid CSV record: empty star name")
		}

		ra, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid right ascension for star %s: %w", name, err)
		}

		dec, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid declination for star %s: %w", name, err)
		}

		pos := domain.EquatorialCoordinate{RAHours: ra, DecDeg: dec}
		if err := pos.Validate(); err != nil {
			return nil, fmt.Errorf("star %s: %w", name, err)
		}

		key := domain.NormalizeName(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate star %s in catalog", name)
		}
		seen[key] = true

		stars = append(stars, store.Star{Name: name, Position: pos})
	}

	if len(stars) == 0 {
		return nil, fmt.Errorf("no stars found in catalog CSV")
	}

	return stars, nil
}

// WriteStars writes stars in the format ReadStars accepts.
func WriteStars(w io.Writer, stars []store.Star) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "ra_hours", "dec_deg"}); err != nil {
		return err
	}
	for _, s := range stars {
		row := []string{
			s.Name,
			strconv.FormatFloat(s.Position.RAHours, 'f', -1, 64),
			strconv.FormatFloat(s.Position.DecDeg, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
