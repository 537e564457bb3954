package disposition

import (
	"errors"
	"fmt"
	"math"

	"ExoVista/internal/domain/models"
)

var ErrModelOutput = errors.New("invalid model output")

// ScoresFromModelOutput converts an external classifier's output into confidence scores.
// Three or more values are read as [confirmed, candidate, falsePositive]; a single value is
// a binary planet probability mapped onto the three classes.
func ScoresFromModelOutput(out []float64) (models.ConfidenceScores, error) {
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return models.ConfidenceScores{}, fmt.Errorf("%w: value %d (%v) outside [0,1]", ErrModelOutput, i, v)
		}
	}
	switch {
	case len(out) >= 3:
		return models.ConfidenceScores{
			Confirmed:     round2(out[0]),
			Candidate:     round2(out[1]),
			FalsePositive: round2(out[2]),
		}, nil
	case len(out) == 1:
		return binaryScores(out[0]), nil
	default:
		return models.ConfidenceScores{}, fmt.Errorf("%w: expected 1 or at least 3 values, got %d", ErrModelOutput, len(out))
	}
}

func binaryScores(p float64) models.ConfidenceScores {
	var s models.ConfidenceScores
	switch {
	case p > 0.7:
		s = models.ConfidenceScores{Confirmed: p, Candidate: 1 - p, FalsePositive: 0.1}
	case p > 0.3:
		s = models.ConfidenceScores{Confirmed: p * 0.6, Candidate: 0.8, FalsePositive: 1 - p}
	default:
		s = models.ConfidenceScores{Confirmed: p * 0.3, Candidate: 0.2, FalsePositive: 1 - p}
	}
	s.Confirmed = round2(s.Confirmed)
	s.Candidate = round2(s.Candidate)
	s.FalsePositive = round2(s.FalsePositive)
	return s
}
