package model

// TrialRecord is one trial account read from the input export.
type TrialRecord struct {
	CompanyName       string `csv:"company_name" json:"company_name"`
	Email             string `csv:"email" json:"email"`
	Tier              string `csv:"tier" json:"tier"`
	DeclaredLocations string `csv:"num_locations" json:"num_locations"`
	IsRestaurant      string `csv:"is_restaurant" json:"is_restaurant"`
	Locality          string `csv:"locality,omitempty" json:"locality,omitempty"`
	PlaceIDsRaw       string `csv:"place_ids,omitempty" json:"place_ids,omitempty"`

	// PlaceIDs is parsed from PlaceIDsRaw by the reader.
	PlaceIDs []string `csv:"-" json:"parsed_place_ids,omitempty"`
}

// HasPlaceIDs reports whether the record carries pre-resolved place ids.
func (t TrialRecord) HasPlaceIDs() bool {
	return len(t.PlaceIDs) > 0
}
