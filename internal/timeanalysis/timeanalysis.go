// Package timeanalysis buckets a location's rating history into four fixed
// daily periods and ranks them by average score, so users can see when
// quality has historically been best.
package timeanalysis

import (
	"sort"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/scoring"
)

const (
	PeriodMorning   = "morning"
	PeriodLunch     = "lunch"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Period is one fixed daily bucket. StartHour/EndHour are inclusive local
// hours; hours outside every explicit range fall to evening.
type Period struct {
	Tag       string
	StartHour int
	EndHour   int
	Label     string
}

// Thresholds are the minimum sample sizes for each confidence tier. Every
// non-empty period gets a label; below Low it is still "low".
type Thresholds struct {
	High   int
	Medium int
	Low    int
}

// Config is the fixed lookup data the aggregator runs on. Treated as
// immutable; use DefaultConfig.
type Config struct {
	Periods    []Period
	Thresholds Thresholds
}

func DefaultConfig() Config {
	return Config{
		Periods: []Period{
			{Tag: PeriodMorning, StartHour: 6, EndHour: 10, Label: "6:00 AM - 11:00 AM"},
			{Tag: PeriodLunch, StartHour: 11, EndHour: 14, Label: "11:00 AM - 3:00 PM"},
			{Tag: PeriodAfternoon, StartHour: 15, EndHour: 18, Label: "3:00 PM - 7:00 PM"},
			{Tag: PeriodEvening, StartHour: 19, EndHour: 23, Label: "7:00 PM - 12:00 AM"},
		},
		Thresholds: Thresholds{High: 20, Medium: 10, Low: 5},
	}
}

// Aggregator computes time-of-day recommendations from rating history.
type Aggregator struct {
	cfg Config
}

func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// PeriodFor maps a local hour-of-day to a period tag. Hours not covered by
// morning/lunch/afternoon fall to evening, including the 0-5 overnight
// range. The catch-all is deliberate.
func (a *Aggregator) PeriodFor(hour int) string {
	for _, p := range a.cfg.Periods {
		if p.Tag == PeriodEvening {
			continue
		}
		if hour >= p.StartHour && hour <= p.EndHour {
			return p.Tag
		}
	}
	return PeriodEvening
}

// Confidence maps a sample size to its tier.
func (a *Aggregator) Confidence(sampleSize int) string {
	switch {
	case sampleSize >= a.cfg.Thresholds.High:
		return ConfidenceHigh
	case sampleSize >= a.cfg.Thresholds.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Analyze groups ratings by local-time period and returns non-empty periods
// sorted by descending average score. Rating timestamps are converted to
// the location's IANA zone; an unknown zone falls back to UTC.
func (a *Aggregator) Analyze(ratings []models.Rating, timezone string) []models.TimeRecommendation {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range ratings {
		tag := a.PeriodFor(r.CreatedAt.In(loc).Hour())
		sums[tag] += float64(r.Score)
		counts[tag]++
	}

	recs := make([]models.TimeRecommendation, 0, len(a.cfg.Periods))
	for _, p := range a.cfg.Periods {
		n := counts[p.Tag]
		if n == 0 {
			continue
		}
		recs = append(recs, models.TimeRecommendation{
			Period:     p.Tag,
			AvgScore:   scoring.Round2(sums[p.Tag] / float64(n)),
			Confidence: a.Confidence(n),
			SampleSize: n,
			TimeRange:  p.Label,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].AvgScore > recs[j].AvgScore
	})
	return recs
}

// BestPeriod returns the top-ranked period that is either above low
// confidence or has at least the low-tier sample count, or nil if none
// qualifies.
func (a *Aggregator) BestPeriod(recs []models.TimeRecommendation) *models.TimeRecommendation {
	for i := range recs {
		if recs[i].Confidence != ConfidenceLow || recs[i].SampleSize >= a.cfg.Thresholds.Low {
			return &recs[i]
		}
	}
	return nil
}

// HasReliableData reports whether any period reached medium or high
// confidence.
func (a *Aggregator) HasReliableData(recs []models.TimeRecommendation) bool {
	for _, r := range recs {
		if r.Confidence == ConfidenceHigh || r.Confidence == ConfidenceMedium {
			return true
		}
	}
	return false
}
