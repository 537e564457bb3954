package models

import "time"

// Disposition is the dominant outcome of a classification.
type Disposition string

const (
	DispositionConfirmed     Disposition = "confirmed"
	DispositionCandidate     Disposition = "candidate"
	DispositionFalsePositive Disposition = "false_positive"
	DispositionUncertain     Disposition = "uncertain"
)

// Output list caps. Truncation keeps the leading entries in order.
const (
	MaxKeyFeatures = 3
	MaxFollowUps   = 2
)

// ConfidenceScores is a probability-like distribution over the three classes,
// each value rounded to two decimals.
type ConfidenceScores struct {
	Confirmed     float64 `json:"confirmed"`
	Candidate     float64 `json:"candidate"`
	FalsePositive float64 `json:"falsePositive"`
}

func (s ConfidenceScores) Sum() float64 { return s.Confirmed + s.Candidate + s.FalsePositive }

func (s ConfidenceScores) Max() float64 {
	m := s.Confirmed
	if s.Candidate > m {
		m = s.Candidate
	}
	if s.FalsePositive > m {
		m = s.FalsePositive
	}
	return m
}

// DispositionReport is the explainable result produced for one observation.
type DispositionReport struct {
	ConfidenceScores     ConfidenceScores `json:"confidenceScores"`
	Interpretation       string           `json:"interpretation"`
	KeyFeatures          []string         `json:"keyFeatures"`
	UncertaintyIndicator string           `json:"uncertaintyIndicator"`
	FollowUp             []string         `json:"followUp"`
	ContextualPlacement  string           `json:"contextualPlacement"`

	Disposition Disposition `json:"disposition"`
	Band        int         `json:"band"` // 0 when scores came from an external model
	Seed        uint64      `json:"seed"`
}

// ReportEnvelope is what gets published downstream for every produced report.
type ReportEnvelope struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"` // http, batch, stream, kafka, cli
	Observation Observation       `json:"observation"`
	Report      DispositionReport `json:"report"`
	CreatedAt   time.Time         `json:"created_at"`
}
