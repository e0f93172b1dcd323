package provider

import (
	"context"
)

// Router composes a Client from independently chosen providers. A nil Jobs or
// Page provider turns that lookup into a no-op.
type Router struct {
	Listing ListingProvider
	Jobs    JobsProvider
	Page    PageProvider
}

// LookupListing delegates to the listing provider.
func (r *Router) LookupListing(ctx context.Context, query string, maxResults int) ([]ListingCandidate, error) {
	return r.Listing.LookupListing(ctx, query, maxResults)
}

// LookupByExternalID delegates to the listing provider.
func (r *Router) LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]ListingCandidate, error) {
	return r.Listing.LookupByExternalID(ctx, ids, maxResults)
}

// LookupJobPostings delegates to the jobs provider.
func (r *Router) LookupJobPostings(ctx context.Context, query string, maxResults int) ([]JobPosting, error) {
	if r.Jobs == nil {
		return nil, nil
	}
	return r.Jobs.LookupJobPostings(ctx, query, maxResults)
}

// FetchPageSignals delegates to the page provider.
func (r *Router) FetchPageSignals(ctx context.Context, url string) (*PageSignals, error) {
	if r.Page == nil {
		return nil, nil
	}
	return r.Page.FetchPageSignals(ctx, url)
}

var (
	_ Client          = (*Router)(nil)
	_ Client          = (*Apify)(nil)
	_ Client          = (*Fixture)(nil)
	_ Client          = (*Guarded)(nil)
	_ ListingProvider = (*Google)(nil)
	_ PageProvider    = (*Jina)(nil)
)
