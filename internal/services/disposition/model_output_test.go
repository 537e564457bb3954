package disposition

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ExoVista/internal/domain/models"
)

func TestScoresFromModelOutput(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want models.ConfidenceScores
	}{
		{"binary high", []float64{0.9}, models.ConfidenceScores{Confirmed: 0.9, Candidate: 0.1, FalsePositive: 0.1}},
		{"binary mid", []float64{0.5}, models.ConfidenceScores{Confirmed: 0.3, Candidate: 0.8, FalsePositive: 0.5}},
		{"binary low", []float64{0.2}, models.ConfidenceScores{Confirmed: 0.06, Candidate: 0.2, FalsePositive: 0.8}},
		{"three class", []float64{0.123, 0.456, 0.421}, models.ConfidenceScores{Confirmed: 0.12, Candidate: 0.46, FalsePositive: 0.42}},
		{"extra values ignored", []float64{0.7, 0.2, 0.1, 0.99}, models.ConfidenceScores{Confirmed: 0.7, Candidate: 0.2, FalsePositive: 0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScoresFromModelOutput(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("scores mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoresFromModelOutputErrors(t *testing.T) {
	bad := [][]float64{
		nil,
		{0.4, 0.6},
		{math.NaN()},
		{1.5},
		{0.2, -0.1, 0.9},
	}
	for _, in := range bad {
		if _, err := ScoresFromModelOutput(in); !errors.Is(err, ErrModelOutput) {
			t.Fatalf("input %v: expected ErrModelOutput, got %v", in, err)
		}
	}
}

func TestExplain(t *testing.T) {
	c := NewClassifier()
	scores := models.ConfidenceScores{Confirmed: 0.1, Candidate: 0.1, FalsePositive: 0.8}
	r := c.Explain(closeIn, scores)
	if r.Band != 0 || r.Seed != 0 {
		t.Fatalf("explained report must carry no band or seed, got %d/%d", r.Band, r.Seed)
	}
	if r.Disposition != models.DispositionFalsePositive || r.Interpretation != "Most likely not a planet." {
		t.Fatalf("unexpected verdict %s %q", r.Disposition, r.Interpretation)
	}
	if r.UncertaintyIndicator != uncertaintyConfident {
		t.Fatalf("uncertainty = %q", r.UncertaintyIndicator)
	}
	if diff := cmp.Diff(scores, r.ConfidenceScores); diff != "" {
		t.Fatalf("scores changed:\n%s", diff)
	}

	r = c.Explain(closeIn, models.ConfidenceScores{Confirmed: 0.2, Candidate: 0.7, FalsePositive: 0.1})
	want := []string{
		"Request radial-velocity follow-up to measure the planet's mass",
		"Collect additional transit observations to refine the period",
	}
	if diff := cmp.Diff(want, r.FollowUp); diff != "" {
		t.Fatalf("follow-up mismatch (-want +got):\n%s", diff)
	}
	if r.UncertaintyIndicator != uncertaintyDiffuse {
		t.Fatalf("0.7 must not count as confident")
	}
}
