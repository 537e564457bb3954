package disposition

import (
	"math"

	"ExoVista/internal/domain/models"
)

// scoreRange is a uniform draw over [base, base+spread).
type scoreRange struct {
	base, spread float64
}

func (r scoreRange) draw(src Source) float64 { return r.base + src.Float64()*r.spread }

type band struct {
	id            int
	match         func(traits) bool
	confirmed     scoreRange
	candidate     scoreRange
	falsePositive scoreRange
}

// Ordered; the last entry matches everything.
var bands = []band{
	{
		id:            1,
		match:         func(t traits) bool { return t.hotJupiter || (t.deepTransit && t.obs.Period > 1) },
		confirmed:     scoreRange{0.65, 0.25},
		candidate:     scoreRange{0.15, 0.15},
		falsePositive: scoreRange{0.05, 0.15},
	},
	{
		id:            2,
		match:         func(t traits) bool { return t.habitableZone && t.obs.PlanetRadius < 3.0 },
		confirmed:     scoreRange{0.45, 0.25},
		candidate:     scoreRange{0.35, 0.25},
		falsePositive: scoreRange{0.10, 0.15},
	},
	{
		id: 3,
		match: func(t traits) bool {
			return t.shortPeriod || t.obs.TransitDepth < 0.001 || t.obs.PlanetRadius < 0.3
		},
		confirmed:     scoreRange{0.20, 0.25},
		candidate:     scoreRange{0.25, 0.25},
		falsePositive: scoreRange{0.35, 0.30},
	},
	{
		id:            4,
		match:         func(traits) bool { return true },
		confirmed:     scoreRange{0.30, 0.35},
		candidate:     scoreRange{0.30, 0.35},
		falsePositive: scoreRange{0.20, 0.25},
	},
}

func selectBand(t traits) band {
	for _, b := range bands {
		if b.match(t) {
			return b
		}
	}
	return bands[len(bands)-1]
}

// score draws confirmed, candidate and false positive in that order and normalizes.
func (b band) score(src Source) models.ConfidenceScores {
	c := b.confirmed.draw(src)
	k := b.candidate.draw(src)
	f := b.falsePositive.draw(src)
	sum := c + k + f
	return models.ConfidenceScores{
		Confirmed:     round2(c / sum),
		Candidate:     round2(k / sum),
		FalsePositive: round2(f / sum),
	}
}

// round2 rounds half up to two decimals.
func round2(x float64) float64 { return math.Floor(x*100+0.5) / 100 }
