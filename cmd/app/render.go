package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"ExoVista/internal/domain/models"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.Bold)
)

var dispositionColors = map[models.Disposition]*color.Color{
	models.DispositionConfirmed:     color.New(color.FgGreen, color.Bold),
	models.DispositionCandidate:     color.New(color.FgYellow, color.Bold),
	models.DispositionFalsePositive: color.New(color.FgRed, color.Bold),
	models.DispositionUncertain:     color.New(color.FgMagenta, color.Bold),
}

// renderReport formats r for a terminal.
func renderReport(r *models.DispositionReport, colored bool) string {
	paint := func(c *color.Color, s string) string {
		if !colored {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	var b strings.Builder
	verdict := strings.ToUpper(strings.ReplaceAll(string(r.Disposition), "_", " "))
	if c, ok := dispositionColors[r.Disposition]; ok {
		verdict = paint(c, verdict)
	}
	fmt.Fprintf(&b, "%s %s\n", paint(headingColor, "Disposition:"), verdict)
	fmt.Fprintf(&b, "%s confirmed %.2f  candidate %.2f  false positive %.2f\n",
		paint(labelColor, "Confidence:"),
		r.ConfidenceScores.Confirmed, r.ConfidenceScores.Candidate, r.ConfidenceScores.FalsePositive)
	fmt.Fprintf(&b, "%s %s\n", paint(labelColor, "Interpretation:"), r.Interpretation)
	fmt.Fprintf(&b, "%s %s\n", paint(labelColor, "Uncertainty:"), r.UncertaintyIndicator)
	fmt.Fprintf(&b, "%s %s\n", paint(labelColor, "Placement:"), r.ContextualPlacement)
	section(&b, paint(labelColor, "Key features:"), r.KeyFeatures)
	section(&b, paint(labelColor, "Follow-up:"), r.FollowUp)
	if r.Band > 0 {
		fmt.Fprintf(&b, "%s band %d, seed %d\n", paint(labelColor, "Engine:"), r.Band, r.Seed)
	}
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(b, title)
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}
