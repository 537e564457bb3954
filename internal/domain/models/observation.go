package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidObservation marks observations rejected before they reach the classifier.
var ErrInvalidObservation = errors.New("invalid observation")

// InputMode selects which observation fields are required.
type InputMode string

const (
	ModeManual InputMode = "manual" // all five fields required
	ModeFile   InputMode = "file"   // duration and stellar radius optional
)

// Upper bounds accepted by the manual entry form.
const (
	MaxPeriod        = 10000.0
	MaxDuration      = 24.0
	MaxTransitDepth  = 100.0
	MaxPlanetRadius  = 50.0
	MaxStellarRadius = 100.0
)

// Observation holds the measured parameters of one transit signal.
// Optional fields are zero when absent.
type Observation struct {
	Period        float64 `json:"period"`                  // days
	Duration      float64 `json:"duration,omitempty"`      // hours
	TransitDepth  float64 `json:"transitDepth"`            // percent of starlight blocked
	PlanetRadius  float64 `json:"planetRadius"`            // Earth radii
	StellarRadius float64 `json:"stellarRadius,omitempty"` // Solar radii
}

func (o Observation) HasDuration() bool { return o.Duration > 0 }

func (o Observation) HasStellarRadius() bool { return o.StellarRadius > 0 }

// Validate checks o against the requirements of mode and wraps every
// failure in ErrInvalidObservation.
func (o Observation) Validate(mode InputMode) error {
	if mode == "" {
		mode = ModeManual
	}
	if mode != ModeManual && mode != ModeFile {
		return fmt.Errorf("%w: unknown input mode %q", ErrInvalidObservation, mode)
	}
	fields := []struct {
		name     string
		value    float64
		max      float64
		required bool
	}{
		{"period", o.Period, MaxPeriod, true},
		{"duration", o.Duration, MaxDuration, mode == ModeManual},
		{"transitDepth", o.TransitDepth, MaxTransitDepth, true},
		{"planetRadius", o.PlanetRadius, MaxPlanetRadius, true},
		{"stellarRadius", o.StellarRadius, MaxStellarRadius, mode == ModeManual},
	}
	for _, f := range fields {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			return &FieldError{Field: f.name, Reason: "must be a finite number"}
		case f.value == 0 && !f.required:
			continue
		case f.value == 0:
			return &FieldError{Field: f.name, Reason: "is required"}
		case f.value < 0:
			return &FieldError{Field: f.name, Reason: "must be a positive number"}
		case f.value > f.max:
			return &FieldError{Field: f.name, Reason: fmt.Sprintf("cannot exceed %g", f.max)}
		}
	}
	return nil
}

// FieldError names the observation field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidObservation, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidObservation }
