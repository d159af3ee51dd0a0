package models

import (
	"time"
)

// Rating scores are integers on a 1..5 scale.
const (
	MinScore = 1
	MaxScore = 5
)

// RecentlyRatedWindow is how long a location counts as "recently rated"
// after its latest rating.
const RecentlyRatedWindow = 24 * time.Hour

// DayHours is the open/close range for a single weekday. Close may be
// "24:00" for end-of-day, or "00:00" when the range crosses midnight.
type DayHours struct {
	Open   string `json:"open,omitempty" yaml:"open,omitempty"`
	Close  string `json:"close,omitempty" yaml:"close,omitempty"`
	Closed bool   `json:"closed,omitempty" yaml:"closed,omitempty"`
}

// OperatingHours holds a full weekly schedule plus the IANA timezone the
// schedule is expressed in. All seven days are always present.
type OperatingHours struct {
	Monday    DayHours `json:"monday" yaml:"monday"`
	Tuesday   DayHours `json:"tuesday" yaml:"tuesday"`
	Wednesday DayHours `json:"wednesday" yaml:"wednesday"`
	Thursday  DayHours `json:"thursday" yaml:"thursday"`
	Friday    DayHours `json:"friday" yaml:"friday"`
	Saturday  DayHours `json:"saturday" yaml:"saturday"`
	Sunday    DayHours `json:"sunday" yaml:"sunday"`
	Timezone  string   `json:"timezone" yaml:"timezone"`
}

// Location is a store with its coordinate and denormalized rating state.
type Location struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	Hours         OperatingHours `json:"hours"`
	CurrentScore  *float64       `json:"currentScore"`
	LastRatedAt   *time.Time     `json:"lastRated"`
	RecentlyRated bool           `json:"recentlyRated"`
	CreatedAt     time.Time      `json:"-"`
}

// MarkRecency refreshes the RecentlyRated flag against now.
func (l *Location) MarkRecency(now time.Time) {
	l.RecentlyRated = l.LastRatedAt != nil && now.Sub(*l.LastRatedAt) < RecentlyRatedWindow
}

// Rating is one immutable user submission for a location.
type Rating struct {
	ID         string    `json:"id"`
	LocationID string    `json:"locationId"`
	Score      int       `json:"score"`
	UserID     string    `json:"userId,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}

// ValidScore reports whether s is on the 1..5 scale.
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}

// ValidCoordinate reports whether lat/lng form a real geographic point.
// Boundary values are accepted.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// NearbyLocation is a Location plus its distance from a query center.
type NearbyLocation struct {
	Location
	DistanceMeters float64 `json:"distanceMeters"`
}

// NearbyResult is the capped slice served to the caller alongside the true
// candidate count before truncation.
type NearbyResult struct {
	Locations  []NearbyLocation `json:"locations"`
	TotalFound int              `json:"totalFound"`
}

// TimeRecommendation is a derived per-period aggregate, never persisted.
type TimeRecommendation struct {
	Period     string  `json:"period"`
	AvgScore   float64 `json:"avgScore"`
	Confidence string  `json:"confidence"`
	SampleSize int     `json:"sampleSize"`
	TimeRange  string  `json:"timeRange"`
}

// LocationDetail is the full cached read model for one location.
// With zero ratings TotalRatings and AverageScore are 0 and
// Recommendations is empty.
type LocationDetail struct {
	Location        Location             `json:"location"`
	Ratings         []Rating             `json:"ratings"`
	TotalRatings    int                  `json:"totalRatings"`
	AverageScore    float64              `json:"averageScore"`
	Recommendations []TimeRecommendation `json:"timeRecommendations"`
	HasReliableData bool                 `json:"hasReliableData"`
	BestPeriod      *TimeRecommendation  `json:"bestPeriod,omitempty"`
}
