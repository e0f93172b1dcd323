package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/trial-research/internal/model"
)

func TestConfidenceScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  model.EnrichedRecord
		want int
	}{
		{"nothing found", model.EnrichedRecord{}, 50},
		{"listing only", model.EnrichedRecord{ListingTitle: "x"}, 70},
		{"listing and website", model.EnrichedRecord{ListingURL: "u", Website: "w"}, 85},
		{"reviews 19", model.EnrichedRecord{ListingTitle: "x", ReviewCount: 19}, 70},
		{"reviews 20", model.EnrichedRecord{ListingTitle: "x", ReviewCount: 20}, 75},
		{"reviews 50", model.EnrichedRecord{ListingTitle: "x", ReviewCount: 50}, 80},
		{"reviews 100", model.EnrichedRecord{ListingTitle: "x", ReviewCount: 100}, 85},
		{"rating 3.9", model.EnrichedRecord{ListingTitle: "x", Rating: ptr(3.9)}, 70},
		{"rating 4.0", model.EnrichedRecord{ListingTitle: "x", Rating: ptr(4.0)}, 75},
		{"parent only", model.EnrichedRecord{ParentCompany: "Acme Group"}, 70},
		{
			"everything",
			model.EnrichedRecord{ListingTitle: "x", Website: "w", ReviewCount: 5000, Rating: ptr(4.9), ParentCompany: "Acme Group"},
			125,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfidenceScore(tt.rec))
		})
	}
}

func TestRetier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		multi, fsr bool
		reviews    int
		want       model.SalesTier
	}{
		{true, true, 150, model.Tier1},
		{true, false, 60, model.Tier2},
		{false, true, 25, model.Tier3},
		{false, false, 5, model.Tier5},
		{true, true, 99, model.Tier2},
		{true, true, 49, model.Tier3},
		{true, false, 49, model.Tier5},
		{false, false, 50, model.Tier3},
		{false, true, 19, model.Tier5},
		{false, false, 10000, model.Tier3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Retier(tt.multi, tt.fsr, tt.reviews), "%+v", tt)
	}
}

func TestRetier_NeverTier4(t *testing.T) {
	t.Parallel()
	for _, multi := range []bool{false, true} {
		for _, fsr := range []bool{false, true} {
			for reviews := 0; reviews <= 200; reviews++ {
				got := Retier(multi, fsr, reviews)
				assert.NotEqual(t, model.Tier4, got)
				assert.Contains(t, model.SalesTiers, got)
			}
		}
	}
}

func TestIsFullService(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFullService("Seafood restaurant", "$$$"))
	assert.True(t, IsFullService("Fine Dining", "$$$$"))
	assert.True(t, IsFullService("Steakhouse", " $$$ "))
	assert.True(t, IsFullService("Italian", "$$$"))
	assert.False(t, IsFullService("Seafood restaurant", "$$"))
	assert.False(t, IsFullService("Coffee shop", "$$$$"))
	assert.False(t, IsFullService("", "$$$"))
	assert.False(t, IsFullService("Restaurant", ""))
}

func TestEstimateSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Large (1000+ reviews)", EstimateSize(1000))
	assert.Equal(t, "Medium-Large (500+ reviews)", EstimateSize(999))
	assert.Equal(t, "Medium-Large (500+ reviews)", EstimateSize(500))
	assert.Equal(t, "Medium (100+ reviews)", EstimateSize(100))
	assert.Equal(t, "Small-Medium (20+ reviews)", EstimateSize(20))
	assert.Equal(t, "Small (< 20 reviews)", EstimateSize(19))
	assert.Equal(t, "Small (< 20 reviews)", EstimateSize(0))
}
