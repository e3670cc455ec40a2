package filter

import (
	"sort"
	"strings"

	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/ranking"
)

// Apply orders offers for display and caps the result. An empty sortBy keeps
// the provider's order. The input slice is not modified.
func Apply(offers []models.NormalizedOffer, sortBy, sortOrder string, limit int) []models.NormalizedOffer {
	result := make([]models.NormalizedOffer, len(offers))
	copy(result, offers)

	sortBy = strings.ToLower(sortBy)
	if sortBy == "best_value" {
		result = ranking.CalculateScores(result)
	}
	if sortBy != "" {
		applySort(result, sortBy, sortOrder)
	}

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func departureKey(o models.NormalizedOffer) string {
	return o.Departure.Date + "T" + o.Departure.Time
}

func applySort(offers []models.NormalizedOffer, sortBy, sortOrder string) {
	if len(offers) == 0 {
		return
	}

	ascending := strings.ToLower(sortOrder) != "desc"

	switch sortBy {
	case "duration":
		sort.SliceStable(offers, func(i, j int) bool {
			if ascending {
				return offers[i].DurationMinutes < offers[j].DurationMinutes
			}
			return offers[i].DurationMinutes > offers[j].DurationMinutes
		})

	case "departure":
		sort.SliceStable(offers, func(i, j int) bool {
			if ascending {
				return departureKey(offers[i]) < departureKey(offers[j])
			}
			return departureKey(offers[i]) > departureKey(offers[j])
		})

	case "stops":
		sort.SliceStable(offers, func(i, j int) bool {
			if ascending {
				return offers[i].StopCount < offers[j].StopCount
			}
			return offers[i].StopCount > offers[j].StopCount
		})

	case "best_value":
		sort.SliceStable(offers, func(i, j int) bool {
			if ascending {
				return offers[i].BestValueScore < offers[j].BestValueScore
			}
			return offers[i].BestValueScore > offers[j].BestValueScore
		})

	default:
		// price, and anything unrecognised
		sort.SliceStable(offers, func(i, j int) bool {
			if ascending {
				return offers[i].Price < offers[j].Price
			}
			return offers[i].Price > offers[j].Price
		})
	}
}
