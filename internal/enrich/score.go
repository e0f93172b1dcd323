package enrich

import (
	"strings"

	"github.com/sells-group/trial-research/internal/model"
)

// Confidence increments.
const (
	scoreFound         = 20
	scoreWebsite       = 15
	scoreReviews100    = 15
	scoreReviews50     = 10
	scoreReviews20     = 5
	scoreRating        = 5
	scoreParentCompany = 20

	ratingThreshold = 4.0
)

// fullServiceKeywords mark a category label as a sit-down restaurant.
var fullServiceKeywords = []string{"restaurant", "seafood", "steakhouse", "italian", "fine dining"}

// ConfidenceScore adds up the evidence on rec starting from the base score.
// Contributions are independent of each other and of evaluation order.
func ConfidenceScore(rec model.EnrichedRecord) int {
	score := model.BaseConfidenceScore

	if rec.HasListing() {
		score += scoreFound
	}
	if rec.Website != "" {
		score += scoreWebsite
	}
	score += reviewBonus(rec.ReviewCount)
	if rec.Rating != nil && *rec.Rating >= ratingThreshold {
		score += scoreRating
	}
	if rec.ParentCompany != "" {
		score += scoreParentCompany
	}
	return score
}

func reviewBonus(reviews int) int {
	switch {
	case reviews >= 100:
		return scoreReviews100
	case reviews >= 50:
		return scoreReviews50
	case reviews >= 20:
		return scoreReviews20
	default:
		return 0
	}
}

// IsFullService reports whether a category and price level look like a
// full-service restaurant: a matching keyword and one of the top two price
// bands.
func IsFullService(category, priceLevel string) bool {
	if !topPriceBand(priceLevel) {
		return false
	}
	c := strings.ToLower(category)
	for _, kw := range fullServiceKeywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}

func topPriceBand(p string) bool {
	p = strings.TrimSpace(p)
	return p == "$$$" || p == "$$$$"
}

// EstimateSize labels a business by its review count.
func EstimateSize(reviews int) string {
	switch {
	case reviews >= 1000:
		return "Large (1000+ reviews)"
	case reviews >= 500:
		return "Medium-Large (500+ reviews)"
	case reviews >= 100:
		return "Medium (100+ reviews)"
	case reviews >= 20:
		return "Small-Medium (20+ reviews)"
	default:
		return "Small (< 20 reviews)"
	}
}

// Retier classifies sales priority from raw signals; first matching rule wins.
// No rule produces Tier 4.
func Retier(multiLocation, fullService bool, reviews int) model.SalesTier {
	switch {
	case multiLocation && fullService && reviews >= 100:
		return model.Tier1
	case multiLocation && reviews >= 50:
		return model.Tier2
	case reviews >= 50, reviews >= 20 && fullService:
		return model.Tier3
	default:
		return model.Tier5
	}
}
