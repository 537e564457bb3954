package models

import (
	"errors"
	"math"
	"testing"
)

func TestObservationValidate(t *testing.T) {
	full := Observation{Period: 3, Duration: 2, TransitDepth: 0.4, PlanetRadius: 10, StellarRadius: 1}
	partial := Observation{Period: 3, TransitDepth: 0.4, PlanetRadius: 10}

	cases := []struct {
		name  string
		obs   Observation
		mode  InputMode
		field string
	}{
		{"manual full", full, ModeManual, ""},
		{"empty mode is manual", partial, "", "duration"},
		{"manual missing stellar", Observation{Period: 3, Duration: 2, TransitDepth: 0.4, PlanetRadius: 10}, ModeManual, "stellarRadius"},
		{"file partial", partial, ModeFile, ""},
		{"negative period", Observation{Period: -1, TransitDepth: 0.4, PlanetRadius: 10}, ModeFile, "period"},
		{"depth over 100", Observation{Period: 3, TransitDepth: 101, PlanetRadius: 10}, ModeFile, "transitDepth"},
		{"radius nan", Observation{Period: 3, TransitDepth: 1, PlanetRadius: math.NaN()}, ModeFile, "planetRadius"},
		{"period inf", Observation{Period: math.Inf(1), TransitDepth: 1, PlanetRadius: 1}, ModeFile, "period"},
		{"optional out of range", Observation{Period: 3, Duration: 30, TransitDepth: 1, PlanetRadius: 1}, ModeFile, "duration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.obs.Validate(tc.mode)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidObservation) {
				t.Fatalf("expected ErrInvalidObservation, got %v", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, err)
			}
		})
	}
}

func TestObservationValidateUnknownMode(t *testing.T) {
	err := Observation{Period: 1, TransitDepth: 1, PlanetRadius: 1}.Validate("thermal")
	if !errors.Is(err, ErrInvalidObservation) {
		t.Fatalf("expected ErrInvalidObservation, got %v", err)
	}
}
