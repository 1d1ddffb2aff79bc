package csv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.ngs.io/skychart-api/internal/adapter/store"
	"go.ngs.io/skychart-api/internal/domain"
)

func TestCatalogStore_LoadStars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stars.csv")
	content := "name,ra_hours,dec_deg\n" +
		"# bright stars\n" +
		"Vega, 18.615649, 38.78369\n" +
		"Sirius,6.752569,-16.7161\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	stars, err := NewCatalogStore(path).LoadStars()
	if err != nil {
		t.Fatalf("LoadStars failed: %v", err)
	}
	if len(stars) != 2 {
		t.Fatalf("expected 2 stars, got %d", len(stars))
	}
	if stars[0].Name != "Vega" || stars[0].Position.RAHours != 18.615649 {
		t.Errorf("unexpected first star: %+v", stars[0])
	}
	if stars[1].Position.DecDeg != -16.7161 {
		t.Errorf("Sirius dec: expected -16.7161, got %f", stars[1].Position.DecDeg)
	}
}

func TestCatalogStore_MissingFile(t *testing.T) {
	_, err := NewCatalogStore(filepath.Join(t.TempDir(), "none.csv")).LoadStars()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadStars_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad header", "star,ra,dec\nVega,1,2\n", "invalid CSV header"},
		{"short header", "name,ra_hours\n", "invalid CSV header"},
		{"bad ra", "name,ra_hours,dec_deg\nVega,x,2\n", "invalid right ascension"},
		{"bad dec", "name,ra_hours,dec_deg\nVega,1,y\n", "invalid declination"},
		{"ra out of range", "name,ra_hours,dec_deg\nVega,25,2\n", "right ascension"},
		{"duplicate", "name,ra_hours,dec_deg\nVega,1,2\nvega,1,2\n", "duplicate"},
		{"empty", "name,ra_hours,dec_deg\n", "no stars"},
		{"blank name", "name,ra_hours,dec_deg\n ,1,2\n", "empty star name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadStars(strings.NewReader(tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteStars_ReadBack(t *testing.T) {
	in := []store.Star{
		{Name: "Deneb", Position: domain.EquatorialCoordinate{RAHours: 20.690528, DecDeg: 45.2803}},
		{Name: "Rigel", Position: domain.EquatorialCoordinate{RAHours: 5.242306, DecDeg: -8.2017}},
	}
	var buf bytes.Buffer
	if err := WriteStars(&buf, in); err != nil {
		t.Fatalf("WriteStars failed: %v", err)
	}
	out, err := ReadStars(&buf)
	if err != nil {
		t.Fatalf("ReadStars failed: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}
