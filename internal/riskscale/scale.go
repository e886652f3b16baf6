// Package riskscale classifies numeric risk values on the platform's
// fixed 0-4 scale. Higher is always worse: 0 means no observed risk,
// 4 means critical risk. The direction of this scale has been reversed
// by accident before, so the package carries an executable inversion
// guard in addition to the classifier itself.
package riskscale

import (
	"math"

	"github.com/rotisserie/eris"
)

// Level is the bounded classification of a risk value.
type Level string

const (
	LevelMinimal  Level = "MINIMAL"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
	LevelNA       Level = "N/A"
)

// Scale bounds and classification thresholds. Shared with the upstream
// scoring pipeline; do not change one side without the other.
const (
	ScaleMin = 0.0
	ScaleMax = 4.0

	thresholdLow      = 0.5
	thresholdMedium   = 1.5
	thresholdHigh     = 2.5
	thresholdCritical = 3.5
)

// Classify maps a risk value to its level. The value is clamped to
// [0,4] first; NaN classifies as N/A (not evaluated).
func Classify(score float64) Level {
	if math.IsNaN(score) {
		return LevelNA
	}
	s := clamp(score)
	switch {
	case s < thresholdLow:
		return LevelMinimal
	case s < thresholdMedium:
		return LevelLow
	case s < thresholdHigh:
		return LevelMedium
	case s < thresholdCritical:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// ClassifyCumulative classifies a cumulative (unbounded) risk total by
// normalizing it over the number of contributing answers first. Without
// this, a principle covered by many questions would always look
// critical regardless of the individual answers.
func ClassifyCumulative(total float64, answerCount int) Level {
	if answerCount <= 0 {
		return LevelNA
	}
	return Classify(total / float64(answerCount))
}

// ColorFor returns the render palette color for a risk value. The
// palette runs green through dark red and is consumed by the chart
// collaborator; it is defined here so color and level can never drift
// apart.
func ColorFor(score float64) string {
	switch Classify(score) {
	case LevelMinimal:
		return "#2e7d32" // green
	case LevelLow:
		return "#f9a825" // yellow
	case LevelMedium:
		return "#ef6c00" // orange
	case LevelHigh:
		return "#d32f2f" // red
	case LevelCritical:
		return "#7f0000" // dark red
	default:
		return "#9e9e9e" // grey, not evaluated
	}
}

// AssertNotInverted fails when a score and a claimed level contradict
// the scale direction: a near-zero score claimed HIGH or CRITICAL, or a
// near-max score claimed MINIMAL or LOW. Callers run this on every
// (score, level) pair they are about to publish.
func AssertNotInverted(score float64, claimed Level) error {
	if math.IsNaN(score) {
		return nil
	}
	s := clamp(score)
	if s < 1.0 && (claimed == LevelHigh || claimed == LevelCritical) {
		return eris.Errorf("riskscale: inverted scale: score %.2f claimed %s", s, claimed)
	}
	if s >= thresholdCritical && (claimed == LevelMinimal || claimed == LevelLow) {
		return eris.Errorf("riskscale: inverted scale: score %.2f claimed %s", s, claimed)
	}
	return nil
}

func clamp(s float64) float64 {
	return math.Min(ScaleMax, math.Max(ScaleMin, s))
}
