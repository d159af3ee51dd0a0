package cache

import "fmt"

// Key builders. Nearby keys canonicalize the center to 4 decimal places
// (~11m) so near-identical requests share an entry. All per-location views
// share the "location:" prefix so one invalidation sweep can clear them.

func NearbyKey(lat, lng, radiusMeters float64) string {
	return fmt.Sprintf("nearby:%.4f:%.4f:%.0f", lat, lng, radiusMeters)
}

func DetailKey(locationID string) string {
	return "location:" + locationID + ":detail"
}

func ScoreKey(locationID string) string {
	return "location:" + locationID + ":score"
}

func SummaryKey(locationID string) string {
	return "location:" + locationID + ":summary"
}

func TimeAnalysisKey(locationID string) string {
	return "location:" + locationID + ":times"
}

// LocationPrefix covers every cached view of a single location.
func LocationPrefix(locationID string) string {
	return "location:" + locationID + ":"
}
