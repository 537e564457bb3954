package disposition

import (
	domsvc "ExoVista/internal/domain/service"
	"ExoVista/internal/domain/models"
)

// Classifier is the rule-based disposition engine. It holds no mutable state;
// every call builds its own Source.
type Classifier struct {
	seeder Seeder
}

type Option func(*Classifier)

// WithSeeder overrides how per-call seeds are chosen.
func WithSeeder(s Seeder) Option {
	return func(c *Classifier) {
		if s != nil {
			c.seeder = s
		}
	}
}

// WithFixedSeed makes every Classify call reproducible.
func WithFixedSeed(seed uint64) Option {
	return WithSeeder(func() uint64 { return seed })
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{seeder: RandomSeed}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify produces a report using a seed from the configured Seeder.
func (c *Classifier) Classify(obs models.Observation) models.DispositionReport {
	return c.ClassifyWithSeed(obs, c.seeder())
}

func (c *Classifier) ClassifyWithSeed(obs models.Observation, seed uint64) models.DispositionReport {
	r := ClassifyWithSource(obs, NewSource(seed))
	r.Seed = seed
	return r
}

// Explain builds a report around scores produced elsewhere, e.g. by ScoresFromModelOutput.
func (c *Classifier) Explain(obs models.Observation, scores models.ConfidenceScores) models.DispositionReport {
	return narrate(evaluateTraits(obs), scores, 0)
}

// ClassifyWithSource runs the full pipeline with draws taken from src.
// Seed is left zero on the returned report.
func ClassifyWithSource(obs models.Observation, src Source) models.DispositionReport {
	t := evaluateTraits(obs)
	b := selectBand(t)
	return narrate(t, b.score(src), b.id)
}

func narrate(t traits, scores models.ConfidenceScores, bandID int) models.DispositionReport {
	v := judge(scores)
	return models.DispositionReport{
		ConfidenceScores:     scores,
		Interpretation:       v.interpretation,
		KeyFeatures:          keyFeatures(t.obs),
		UncertaintyIndicator: uncertainty(scores),
		FollowUp:             followUps(v, t.obs),
		ContextualPlacement:  placement(t),
		Disposition:          v.disposition,
		Band:                 bandID,
	}
}

var _ domsvc.DispositionClassifier = (*Classifier)(nil)
