package earnings

import (
	"fmt"
	"math"
	"strings"

	"PortWatch/internal/domain/models"
)

// Surprise thresholds, in percent of estimate.
const (
	epsBeatPct   = 2.0
	revenueUpPct = 1.0
	reactionBand = 5.0
	neutralScore = 5
	minScore     = 1
	maxScore     = 10
	goodScoreMin = 7
	okayScoreMin = 4
)

// SurprisePct returns (actual-estimate)/|estimate|*100, or nil when either
// figure is missing or the estimate is zero.
func SurprisePct(actual, estimate *float64) *float64 {
	if actual == nil || estimate == nil || *estimate == 0 {
		return nil
	}
	v := (*actual - *estimate) / math.Abs(*estimate) * 100.0
	return &v
}

// EPSStatus buckets the EPS surprise into Beat/Miss/In-Line at ±2%.
// Returns "" when the surprise is undefined.
func EPSStatus(actual, estimate *float64) string {
	pct := SurprisePct(actual, estimate)
	if pct == nil {
		return ""
	}
	switch {
	case *pct > epsBeatPct:
		return models.EPSBeat
	case *pct < -epsBeatPct:
		return models.EPSMiss
	default:
		return models.EPSInLine
	}
}

// RevenueStatus buckets the revenue surprise into Up/Down/Flat at ±1%.
// Returns "" when the surprise is undefined.
func RevenueStatus(actual, estimate *float64) string {
	pct := SurprisePct(actual, estimate)
	if pct == nil {
		return ""
	}
	switch {
	case *pct > revenueUpPct:
		return models.RevenueUp
	case *pct < -revenueUpPct:
		return models.RevenueDown
	default:
		return models.RevenueFlat
	}
}

// Score fills the derived Score, Category and Note fields of a record from
// its raw figures and returns the scored copy. The score starts neutral at
// 5 and moves with EPS surprise (±2), revenue surprise (±2), guidance
// direction (±1) and a market reaction beyond ±5% (±1), clamped to 1..10.
func Score(rec models.EarningsRecord) models.EarningsRecord {
	score := neutralScore
	var verdicts []string

	switch EPSStatus(rec.EPSActual, rec.EPSEstimate) {
	case models.EPSBeat:
		score += 2
		verdicts = append(verdicts, "EPS beat")
	case models.EPSMiss:
		score -= 2
		verdicts = append(verdicts, "EPS miss")
	case models.EPSInLine:
		verdicts = append(verdicts, "EPS in-line")
	}

	switch RevenueStatus(rec.RevenueActual, rec.RevenueEstimate) {
	case models.RevenueUp:
		score += 2
		verdicts = append(verdicts, "Revenue up")
	case models.RevenueDown:
		score -= 2
		verdicts = append(verdicts, "Revenue down")
	case models.RevenueFlat:
		verdicts = append(verdicts, "Revenue flat")
	}

	switch rec.Guidance {
	case models.GuidanceIncreased:
		score++
		verdicts = append(verdicts, "Increased guidance")
	case models.GuidanceDecreased:
		score--
		verdicts = append(verdicts, "Decreased guidance")
	case models.GuidanceMaintained:
		verdicts = append(verdicts, "Maintained guidance")
	}

	if rec.ReactionPct > reactionBand {
		score++
		verdicts = append(verdicts, fmt.Sprintf("Market up %.1f%%", rec.ReactionPct))
	} else if rec.ReactionPct < -reactionBand {
		score--
		verdicts = append(verdicts, fmt.Sprintf("Market down %.1f%%", -rec.ReactionPct))
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	rec.Score = score
	rec.Category = categoryFor(score)
	rec.Note = strings.Join(verdicts, "; ")
	return rec
}

func categoryFor(score int) string {
	switch {
	case score >= goodScoreMin:
		return models.EarningsGood
	case score >= okayScoreMin:
		return models.EarningsOkay
	default:
		return models.EarningsBad
	}
}
