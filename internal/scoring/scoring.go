// Package scoring computes the freshness score of a location from its
// rating history. Newer ratings dominate, but old ones keep a floor weight
// so a long history is never fully discarded.
package scoring

import (
	"math"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
)

const (
	// halfLife is the age at which a rating's weight halves.
	halfLife = 30 * 24 * time.Hour
	// minWeight is the decay floor; no rating ever weighs less than this.
	minWeight = 0.05
)

// Weight returns the recency weight of a rating with the given age.
// Monotonically decreasing, never zero. Future timestamps clamp to full
// weight.
func Weight(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	w := math.Pow(0.5, age.Hours()/halfLife.Hours())
	if w < minWeight {
		return minWeight
	}
	return w
}

// Compute returns the recency-weighted mean score in [0,5] at full
// precision, or nil for an empty history. A single rating yields its exact
// integer value since the weight cancels in the ratio.
func Compute(ratings []models.Rating, now time.Time) *float64 {
	if len(ratings) == 0 {
		return nil
	}

	var weightedSum, weightSum float64
	for _, r := range ratings {
		w := Weight(now.Sub(r.CreatedAt))
		weightedSum += float64(r.Score) * w
		weightSum += w
	}

	score := weightedSum / weightSum
	return &score
}

// Round1 rounds a score to one decimal for display.
func Round1(score float64) float64 {
	return math.Round(score*10) / 10
}

// Round2 rounds to two decimals, used for period averages.
func Round2(score float64) float64 {
	return math.Round(score*100) / 100
}
