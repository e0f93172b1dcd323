package provider

import (
	"context"

	"github.com/sells-group/trial-research/pkg/google"
)

// Google implements ListingProvider with the Places API.
type Google struct {
	client google.Client
}

// NewGoogle creates a Google listing provider.
func NewGoogle(client google.Client) *Google {
	return &Google{client: client}
}

// LookupListing runs a text search.
func (g *Google) LookupListing(ctx context.Context, query string, maxResults int) ([]ListingCandidate, error) {
	resp, err := g.client.TextSearch(ctx, query, maxResults)
	if err != nil {
		return nil, NewError("google", OpListing, err)
	}
	if resp == nil {
		return nil, nil
	}

	out := make([]ListingCandidate, 0, len(resp.Places))
	for i := range resp.Places {
		out = append(out, fromPlace(&resp.Places[i]))
	}
	return out, nil
}

// LookupByExternalID fetches place details for each id in order.
func (g *Google) LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]ListingCandidate, error) {
	if maxResults > 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}

	out := make([]ListingCandidate, 0, len(ids))
	for _, id := range ids {
		p, err := g.client.PlaceDetails(ctx, id)
		if err != nil {
			return nil, NewError("google", OpByID, err)
		}
		if p != nil {
			out = append(out, fromPlace(p))
		}
	}
	return out, nil
}

func fromPlace(p *google.Place) ListingCandidate {
	c := ListingCandidate{
		Title:       p.DisplayName.Text,
		URL:         p.GoogleMapsURI,
		Website:     p.WebsiteURI,
		Phone:       p.NationalPhoneNumber,
		Address:     p.FormattedAddress,
		Category:    p.PrimaryTypeDisplayName.Text,
		PriceLevel:  google.PriceSymbol(p.PriceLevel),
		ReviewCount: p.UserRatingCount,
		PlaceID:     p.ID,
	}
	if p.Rating > 0 {
		r := p.Rating
		c.Rating = &r
	}
	if c.URL == "" && p.ID != "" {
		c.URL = MapsPlaceURL(p.ID)
	}
	return c
}
