// Package report aggregates a finished batch into summary statistics.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trial-research/internal/model"
)

// TopN is the length of the review-count ranking.
const TopN = 5

// Ranked is one entry of the review-count ranking.
type Ranked struct {
	CompanyName string          `json:"company_name"`
	ReviewCount int             `json:"review_count"`
	Rating      *float64        `json:"rating,omitempty"`
	NewTier     model.SalesTier `json:"new_tier,omitempty"`
}

// Summary describes a completed batch. It never feeds back into records.
type Summary struct {
	RunID string `json:"run_id,omitempty"`

	Total         int `json:"total"`
	Complete      int `json:"complete"`
	Skipped       int `json:"skipped"`
	Errors        int `json:"errors"`
	NoData        int `json:"no_data"`
	WithWebsite   int `json:"with_website"`
	WithListing   int `json:"with_listing"`
	MultiLocation int `json:"multi_location"`

	AvgReviews float64 `json:"avg_reviews"`

	ByStatus         map[string]int               `json:"by_status"`
	ByConfidenceTier map[model.ConfidenceTier]int `json:"by_confidence_tier"`
	ByNewTier        map[model.SalesTier]int      `json:"by_new_tier,omitempty"`

	TopByReviews       []Ranked `json:"top_by_reviews,omitempty"`
	MultiLocationNames []string `json:"multi_location_names,omitempty"`
}

// Summarize counts records by status and tier and ranks them by review count.
func Summarize(records []model.EnrichedRecord) Summary {
	s := Summary{
		Total:            len(records),
		ByStatus:         make(map[string]int),
		ByConfidenceTier: make(map[model.ConfidenceTier]int, len(model.ConfidenceTiers)),
	}
	for _, t := range model.ConfidenceTiers {
		s.ByConfidenceTier[t] = 0
	}

	var reviewTotal int
	var ranked []Ranked

	for _, r := range records {
		s.ByStatus[r.ResearchStatus]++
		switch {
		case r.ResearchStatus == model.StatusComplete:
			s.Complete++
		case model.IsSkippedStatus(r.ResearchStatus):
			s.Skipped++
		case model.IsErrorStatus(r.ResearchStatus):
			s.Errors++
		case r.ResearchStatus == model.StatusNoPlaceIDs, r.ResearchStatus == model.StatusNoDataReturned:
			s.NoData++
		}

		if r.Website != "" {
			s.WithWebsite++
		}
		if r.HasListing() {
			s.WithListing++
			reviewTotal += r.ReviewCount
		}
		if r.AppearsMultiLocation {
			s.MultiLocation++
			s.MultiLocationNames = append(s.MultiLocationNames, r.CompanyName)
		}

		s.ByConfidenceTier[r.ConfidenceTier]++
		if r.NewTier != "" {
			if s.ByNewTier == nil {
				s.ByNewTier = make(map[model.SalesTier]int, len(model.SalesTiers))
			}
			s.ByNewTier[r.NewTier]++
		}

		if r.ReviewCount > 0 {
			ranked = append(ranked, Ranked{
				CompanyName: r.CompanyName,
				ReviewCount: r.ReviewCount,
				Rating:      r.Rating,
				NewTier:     r.NewTier,
			})
		}
	}

	if s.WithListing > 0 {
		s.AvgReviews = float64(reviewTotal) / float64(s.WithListing)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ReviewCount > ranked[j].ReviewCount
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	s.TopByReviews = ranked

	return s
}

// FormatJSON renders the summary as indented JSON.
func FormatJSON(s Summary) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal summary")
	}
	return data, nil
}

// FormatText renders the summary for the terminal.
func FormatText(s Summary) string {
	var b strings.Builder

	b.WriteString("# Research Summary\n")
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	}
	b.WriteString("\n")

	b.WriteString("## Records\n")
	fmt.Fprintf(&b, "- Total: %d\n", s.Total)
	fmt.Fprintf(&b, "- Complete: %d\n", s.Complete)
	fmt.Fprintf(&b, "- Skipped: %d\n", s.Skipped)
	fmt.Fprintf(&b, "- No data: %d\n", s.NoData)
	fmt.Fprintf(&b, "- Errors: %d\n", s.Errors)
	fmt.Fprintf(&b, "- With website: %d\n", s.WithWebsite)
	fmt.Fprintf(&b, "- With listing: %d\n", s.WithListing)
	fmt.Fprintf(&b, "- Multi-location: %d\n", s.MultiLocation)
	fmt.Fprintf(&b, "- Avg reviews (listed): %.1f\n\n", s.AvgReviews)

	b.WriteString("## Confidence\n")
	for _, t := range model.ConfidenceTiers {
		fmt.Fprintf(&b, "- %s: %d\n", t, s.ByConfidenceTier[t])
	}
	b.WriteString("\n")

	if len(s.ByNewTier) > 0 {
		b.WriteString("## Re-tier\n")
		for _, t := range model.SalesTiers {
			fmt.Fprintf(&b, "- %s: %d\n", t, s.ByNewTier[t])
		}
		b.WriteString("\n")
	}

	if len(s.TopByReviews) > 0 {
		b.WriteString("## Top by reviews\n")
		for i, r := range s.TopByReviews {
			rating := "n/a"
			if r.Rating != nil {
				rating = fmt.Sprintf("%.1f", *r.Rating)
			}
			fmt.Fprintf(&b, "%d. %s: %d reviews, %s stars", i+1, r.CompanyName, r.ReviewCount, rating)
			if r.NewTier != "" {
				fmt.Fprintf(&b, " (%s)", r.NewTier)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(s.MultiLocationNames) > 0 {
		b.WriteString("## Multi-location\n")
		for _, name := range s.MultiLocationNames {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	return b.String()
}
