package service

import (
	"ExoVista/internal/domain/models"
)

// DispositionClassifier turns a validated observation into a disposition report.
type DispositionClassifier interface {
	Classify(obs models.Observation) models.DispositionReport
	ClassifyWithSeed(obs models.Observation, seed uint64) models.DispositionReport
	// Explain narrates externally produced scores for obs.
	Explain(obs models.Observation, scores models.ConfidenceScores) models.DispositionReport
}
