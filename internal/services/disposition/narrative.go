package disposition

import (
	"fmt"
	"strconv"

	"ExoVista/internal/domain/models"
)

const (
	confidentThreshold = 0.7
	dominantThreshold  = 0.6
)

const (
	uncertaintyConfident = "Model confident: probability distribution is clear."
	uncertaintyDiffuse   = "Model uncertain: probability scores are diffuse."
)

type verdict struct {
	match          func(models.ConfidenceScores) bool
	disposition    models.Disposition
	interpretation string
	followUp       []string
}

// verdicts is shared by interpretation and follow-up selection. First match wins.
var verdicts = []verdict{
	{
		match:          func(s models.ConfidenceScores) bool { return s.Confirmed > dominantThreshold },
		disposition:    models.DispositionConfirmed,
		interpretation: "Highly likely a planet. Signal characteristics align with confirmed exoplanets.",
		followUp: []string{
			"Cross-check with the NASA Exoplanet Archive for prior confirmation",
			"Schedule atmospheric characterization via transmission spectroscopy",
		},
	},
	{
		match:          func(s models.ConfidenceScores) bool { return s.Candidate > dominantThreshold },
		disposition:    models.DispositionCandidate,
		interpretation: "Possible planet, requires further validation.",
		followUp: []string{
			"Request radial-velocity follow-up to measure the planet's mass",
			"Collect additional transit observations to refine the period",
		},
	},
	{
		match:          func(s models.ConfidenceScores) bool { return s.FalsePositive > dominantThreshold },
		disposition:    models.DispositionFalsePositive,
		interpretation: "Most likely not a planet.",
		followUp:       reviewFollowUp,
	},
}

var uncertain = verdict{
	disposition:    models.DispositionUncertain,
	interpretation: "Uncertain outcome. Expert review recommended.",
	followUp:       reviewFollowUp,
}

var reviewFollowUp = []string{
	"Re-examine the light curve for eclipsing binary signatures",
	"Check for instrumental or photometric systematics",
}

const (
	longTransitFollowUp  = "Long transit duration: check for companion planets or a grazing geometry"
	shortTransitFollowUp = "Short transit duration: verify stellar parameters"
)

func judge(s models.ConfidenceScores) verdict {
	for _, v := range verdicts {
		if v.match(s) {
			return v
		}
	}
	return uncertain
}

func uncertainty(s models.ConfidenceScores) string {
	if s.Max() > confidentThreshold {
		return uncertaintyConfident
	}
	return uncertaintyDiffuse
}

// followUps appends the duration hint after the primary pair, then caps the list.
// With a full primary pair the hint never survives the cap.
func followUps(v verdict, obs models.Observation) []string {
	out := make([]string, 0, len(v.followUp)+1)
	out = append(out, v.followUp...)
	if obs.HasDuration() {
		switch {
		case obs.Duration > 6:
			out = append(out, longTransitFollowUp)
		case obs.Duration < 1:
			out = append(out, shortTransitFollowUp)
		}
	}
	return capped(out, models.MaxFollowUps)
}

type featureBand struct {
	high, low         float64
	highText, lowText string
	typicalText       string
}

func (b featureBand) label(v float64) string {
	switch {
	case v > b.high:
		return b.highText
	case v < b.low:
		return b.lowText
	default:
		return b.typicalText
	}
}

var (
	depthBand = featureBand{
		high: 0.5, low: 0.01,
		highText:    "Deep transit suggests large planet",
		lowText:     "Shallow transit, possible small planet or noise",
		typicalText: "Moderate transit depth",
	}
	periodBand = featureBand{
		high: 100, low: 5,
		highText:    "Long period, few transits observed",
		lowText:     "Short period, close-in orbit",
		typicalText: "Typical orbital period",
	}
	radiusBand = featureBand{
		high: 2.0, low: 1.25,
		highText:    "Large radius, giant planet range",
		lowText:     "Earth-sized planet",
		typicalText: "Super-Earth range",
	}
)

func keyFeatures(obs models.Observation) []string {
	features := []string{
		fmt.Sprintf("Transit Depth: %s%% → %s", formatValue(obs.TransitDepth), depthBand.label(obs.TransitDepth)),
		fmt.Sprintf("Orbital Period: %s days → %s", formatValue(obs.Period), periodBand.label(obs.Period)),
		fmt.Sprintf("Planet Radius: %s R⊕ → %s", formatValue(obs.PlanetRadius), radiusBand.label(obs.PlanetRadius)),
	}
	return capped(features, models.MaxKeyFeatures)
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// capped keeps the first n entries without reordering.
func capped(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
