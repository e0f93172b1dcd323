package model

import "time"

// EnrichedRecord is the output row for one TrialRecord. Field order defines
// the output header.
type EnrichedRecord struct {
	CompanyName       string `csv:"company_name" json:"company_name"`
	Email             string `csv:"email" json:"email"`
	OriginalTier      string `csv:"original_tier" json:"original_tier"`
	DeclaredLocations string `csv:"declared_locations" json:"declared_locations"`
	IsRestaurant      string `csv:"is_restaurant" json:"is_restaurant"`

	// Listing lookup.
	Website        string   `csv:"website" json:"website,omitempty"`
	ListingTitle   string   `csv:"listing_title" json:"listing_title,omitempty"`
	ListingURL     string   `csv:"listing_url" json:"listing_url,omitempty"`
	Phone          string   `csv:"phone" json:"phone,omitempty"`
	Address        string   `csv:"address" json:"address,omitempty"`
	Category       string   `csv:"category" json:"category,omitempty"`
	PriceLevel     string   `csv:"price_level" json:"price_level,omitempty"`
	Rating         *float64 `csv:"rating" json:"rating,omitempty"`
	ReviewCount    int      `csv:"review_count" json:"review_count"`
	LocationsFound int      `csv:"locations_found" json:"locations_found"`
	PlaceIDs       string   `csv:"place_ids" json:"place_ids,omitempty"`
	AllLocations   string   `csv:"all_locations" json:"all_locations,omitempty"`

	// Derived signals.
	ParentCompany        string `csv:"parent_company" json:"parent_company,omitempty"`
	AppearsMultiLocation bool   `csv:"appears_multi_location" json:"appears_multi_location"`
	AppearsFullService   bool   `csv:"appears_fsr" json:"appears_fsr"`
	EstimatedSize        string `csv:"estimated_size" json:"estimated_size,omitempty"`
	JobPostingsFound     int    `csv:"job_postings_found" json:"job_postings_found"`
	JobTitles            string `csv:"job_titles" json:"job_titles,omitempty"`
	LocationsURL         string `csv:"locations_url" json:"locations_url,omitempty"`
	CareersURL           string `csv:"careers_url" json:"careers_url,omitempty"`

	// Scoring.
	ConfidenceScore int            `csv:"confidence_score" json:"confidence_score"`
	ConfidenceTier  ConfidenceTier `csv:"confidence_tier" json:"confidence_tier"`
	NewTier         SalesTier      `csv:"new_tier" json:"new_tier,omitempty"`

	ResearchStatus string    `csv:"research_status" json:"research_status"`
	ResearchDate   time.Time `csv:"research_date" json:"research_date"`
}

// NewEnrichedRecord seeds an output record from its input: base confidence
// score, Low tier and Complete status, with every lookup field empty.
func NewEnrichedRecord(t TrialRecord) EnrichedRecord {
	return EnrichedRecord{
		CompanyName:       t.CompanyName,
		Email:             t.Email,
		OriginalTier:      t.Tier,
		DeclaredLocations: t.DeclaredLocations,
		IsRestaurant:      t.IsRestaurant,
		ConfidenceScore:   BaseConfidenceScore,
		ConfidenceTier:    ConfidenceTierFor(BaseConfidenceScore),
		ResearchStatus:    StatusComplete,
	}
}

// HasListing reports whether a listing lookup matched this record.
func (r EnrichedRecord) HasListing() bool {
	return r.ListingURL != "" || r.ListingTitle != ""
}
