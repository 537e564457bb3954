package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ExoVista/internal/domain/models"
)

func TestParseCSV(t *testing.T) {
	in := "Source,Period,Duration,Transit Depth,Planet Radius,Stellar Radius\n" +
		"Kepler,3.5,2.1,0.6,11,1.0\n" +
		"TESS,250,,0.05,1.4,\n" +
		"TESS,abc,1,0.05,1.4,1\n"
	rows, err := NewParser().ParseFile("obs.CSV", strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := []models.Observation{
		{Period: 3.5, Duration: 2.1, TransitDepth: 0.6, PlanetRadius: 11, StellarRadius: 1},
		{Period: 250, TransitDepth: 0.05, PlanetRadius: 1.4},
	}
	for i, w := range want {
		if rows[i].Err != nil {
			t.Fatalf("row %d: unexpected error %v", i, rows[i].Err)
		}
		if diff := cmp.Diff(w, rows[i].Observation); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	if rows[0].Line != 2 || rows[2].Line != 4 {
		t.Fatalf("unexpected line numbers %d, %d", rows[0].Line, rows[2].Line)
	}
	if !errors.Is(rows[2].Err, models.ErrInvalidObservation) {
		t.Fatalf("expected invalid observation for bad row, got %v", rows[2].Err)
	}
}

func TestParseCSVAliases(t *testing.T) {
	in := "orbital_period, transit_depth ,planetRadius,transit-duration\n10,0.2,3,4\n"
	rows, err := NewParser().ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Observation{Period: 10, Duration: 4, TransitDepth: 0.2, PlanetRadius: 3}
	if diff := cmp.Diff(want, rows[0].Observation); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSVSchemaErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"thermal", "orbital_period,transit_depth,temperature\n10,0.2,300\n", ErrThermalSchema},
		{"missing radius", "Period,Transit Depth\n10,0.2\n", ErrMissingColumns},
		{"header only", "Period,Transit Depth,Planet Radius\n", ErrEmptyFile},
		{"empty", "", ErrEmptyFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().ParseCSV(strings.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseCSVMissingColumnsNamed(t *testing.T) {
	_, err := NewParser().ParseCSV(strings.NewReader("Period\n1\n"))
	if err == nil || !strings.Contains(err.Error(), "Transit Depth, Planet Radius") {
		t.Fatalf("expected missing columns to be named, got %v", err)
	}
}

func TestParseCSVMaxRows(t *testing.T) {
	in := "Period,Transit Depth,Planet Radius\n1,1,1\n2,2,2\n3,3,3\n"
	_, err := NewParser(WithMaxRows(2)).ParseCSV(strings.NewReader(in))
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	p := NewParser()

	rows, err := p.ParseFile("one.json", strings.NewReader(`{"period": 3, "transitDepth": "0.4", "planet_radius": 10, "duration": null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Observation{Period: 3, TransitDepth: 0.4, PlanetRadius: 10}
	if diff := cmp.Diff(want, rows[0].Observation); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	rows, err = p.ParseJSON(strings.NewReader(`[{"Period": 1, "Transit Depth": 1, "Planet Radius": 1}, {"Period": true, "Transit Depth": 1, "Planet Radius": 1}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].Err != nil || rows[1].Err == nil {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[1].Line != 2 {
		t.Fatalf("line = %d", rows[1].Line)
	}
}

func TestParseJSONErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"thermal", `{"orbital_period": 10, "transit_depth": 0.3, "temperature": 280}`, ErrThermalSchema},
		{"empty array", `[]`, ErrEmptyFile},
		{"missing", `{"period": 10}`, ErrMissingColumns},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().ParseJSON(strings.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := NewParser().ParseJSON(strings.NewReader(`42`)); err == nil {
		t.Fatalf("expected error for scalar document")
	}
}

func TestParseFileUnsupported(t *testing.T) {
	_, err := NewParser().ParseFile("obs.xlsx", strings.NewReader(""))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseJSONDuplicateAliases(t *testing.T) {
	in := `{"orbital_period":10,"period":20,"transit_depth":0.5,"depth":0.3,"planet_radius":2}`
	want := models.Observation{Period: 20, TransitDepth: 0.3, PlanetRadius: 2}
	for i := 0; i < 50; i++ {
		rows, err := NewParser().ParseJSON(strings.NewReader(in))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if diff := cmp.Diff(want, rows[0].Observation); diff != "" {
			t.Fatalf("run %d picked a different alias (-want +got):\n%s", i, diff)
		}
	}
}
