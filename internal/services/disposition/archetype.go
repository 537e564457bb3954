package disposition

import "ExoVista/internal/domain/models"

// traits are the archetype predicates evaluated once per observation.
type traits struct {
	obs models.Observation

	hotJupiter    bool
	habitableZone bool
	shortPeriod   bool
	deepTransit   bool
	superEarth    bool
}

func evaluateTraits(obs models.Observation) traits {
	return traits{
		obs:           obs,
		hotJupiter:    obs.PlanetRadius > 8 && obs.Period < 10,
		habitableZone: obs.Period > 50 && obs.Period < 400,
		shortPeriod:   obs.Period < 5,
		deepTransit:   obs.TransitDepth > 0.5,
		superEarth:    obs.PlanetRadius > 1.25 && obs.PlanetRadius < 2.0,
	}
}

type placementRule struct {
	match func(traits) bool
	text  string
}

const defaultPlacement = "Located in the mid-range Neptune-class parameter space."

// first match wins
var placementRules = []placementRule{
	{func(t traits) bool { return t.hotJupiter }, "Located in the Hot Jupiter parameter space."},
	{func(t traits) bool { return t.habitableZone }, "Located within the habitable-zone orbital range of temperate worlds."},
	{func(t traits) bool { return t.obs.Period < 2 }, "Located in the ultra-short-period planet population."},
	{func(t traits) bool { return t.obs.TransitDepth < 0.01 }, "Located among small planets with shallow transits."},
	{func(t traits) bool { return t.superEarth }, "Located in the Super-Earth parameter space."},
}

func placement(t traits) string {
	for _, r := range placementRules {
		if r.match(t) {
			return r.text
		}
	}
	return defaultPlacement
}
